// Package vmpressure turns reclaim activity into memory pressure levels and
// notifies subscribers when a level is crossed.
//
// Producers report pages scanned and reclaimed with Record from any
// goroutine; the call is a single atomic add and never blocks. Once a window
// worth of pages has been scanned, a single worker swaps the accumulated
// counts out, computes a 0-100 score from the reclaim efficiency and maps it
// to Low, Medium or OOM. Watchers whose threshold is at or below the new
// level are marked pending and woken.
//
// A reclaim priority at or below the pre-OOM priority publishes OOM straight
// away, without waiting for the window:
//
//	svc, _ := vmpressure.New(vmpressure.Config{})
//	go svc.Run(ctx)
//
//	w, _ := svc.Subscribe(vmpressure.WatchConfig{
//		Size:      vmpressure.WatchConfigSize,
//		Threshold: vmpressure.Medium,
//	})
//	defer w.Close()
//	ev, err := w.Read(ctx)
package vmpressure
