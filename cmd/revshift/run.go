//go:build linux

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ja7ad/revshift/pkg/attr"
	"github.com/ja7ad/revshift/pkg/config"
	"github.com/ja7ad/revshift/pkg/hotplug"
	"github.com/ja7ad/revshift/pkg/logging"
	"github.com/ja7ad/revshift/pkg/system/cgroup"
	"github.com/ja7ad/revshift/pkg/system/input"
	"github.com/ja7ad/revshift/pkg/system/proc"
	"github.com/ja7ad/revshift/pkg/vmpressure"
)

func newRunCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hotplug controller and pressure service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.New(configPath)
			if err != nil {
				return err
			}
			if err := bindFlags(v, cmd); err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			return run(cmd.Context(), v, cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (yaml, toml or json)")
	cmd.Flags().String("log-level", logging.LevelInfo, "log level (DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().String("log-format", logging.FormatText, "log format (text, json)")
	cmd.Flags().String("addr", defaultAddr, "HTTP listen address for /metrics, /attrs and /pressure")
	cmd.Flags().Bool("no-http", false, "disable the HTTP endpoint")
	cmd.Flags().Bool("no-input", false, "do not listen for touch input")
	cmd.Flags().Bool("no-vmpressure", false, "disable the pressure service")
	cmd.Flags().Duration("initial-delay", hotplug.DefaultInitialDelay, "delay before the first hotplug tick")
	cmd.Flags().Bool("debug", false, "log every hotplug decision")
	return cmd
}

// bindFlags lets explicitly set flags override the file and environment.
func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	f := cmd.Flags()
	for key, name := range map[string]string{
		"logging.level":  "log-level",
		"logging.format": "log-format",
		"http.addr":      "addr",
		"hotplug.debug":  "debug",
	} {
		if f.Changed(name) {
			if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
				return err
			}
		}
	}
	for key, name := range map[string]string{
		"http.enabled":       "no-http",
		"input.enabled":      "no-input",
		"vmpressure.enabled": "no-vmpressure",
	} {
		if off, _ := f.GetBool(name); off {
			v.Set(key, false)
		}
	}
	if f.Changed("initial-delay") {
		d, _ := f.GetDuration("initial-delay")
		v.Set("hotplug.initial_delay_ms", d.Milliseconds())
	}
	return nil
}

func run(ctx context.Context, v *viper.Viper, cfg *config.Config) error {
	log := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	cpus, err := proc.NewCPUs()
	if err != nil {
		return fmt.Errorf("cpus: %w", err)
	}
	host, kernel := hostSummary()
	fmt.Printf(_console, host, kernel, cpus.Count())

	set := attr.NewSet()

	tun := cfg.HotplugTunables(cpus.Count())
	sw := cfg.HotplugSwitches()
	ctl, err := hotplug.New(hotplug.Config{
		Units:        cpus,
		Times:        cpus,
		Ratio:        cpus,
		Tunables:     &tun,
		Switches:     &sw,
		InitialDelay: time.Duration(cfg.Hotplug.InitialDelayMs) * time.Millisecond,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("hotplug: %w", err)
	}
	ctl.RegisterAttrs(set)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return ctl.Run(ctx) })

	var svc *vmpressure.Service
	if cfg.VMPressure.Enabled {
		vt := cfg.VMPressureTunables()
		svc, err = vmpressure.New(vmpressure.Config{
			Tunables:    &vt,
			MaxWatchers: cfg.VMPressure.MaxWatchers,
			Logger:      log,
		})
		if err != nil {
			return fmt.Errorf("vmpressure: %w", err)
		}
		svc.RegisterAttrs(set)
		col, err := newReclaimSampler(cfg.VMPressure.Cgroup, proc.DefaultProcRoot)
		if err != nil {
			return fmt.Errorf("reclaim source: %w", err)
		}
		interval := time.Duration(cfg.VMPressure.SampleMs) * time.Millisecond
		g.Go(func() error { return svc.Run(ctx) })
		g.Go(func() error { return feedReclaim(ctx, svc, col, interval, log) })
	}

	if cfg.Input.Enabled {
		devices := cfg.Input.Devices
		if len(devices) == 0 {
			if devices, err = input.Discover(input.DefaultSysRoot, input.DefaultDevRoot); err != nil {
				log.Warn("input discovery failed", "err", err)
			}
		}
		for _, dev := range devices {
			g.Go(func() error {
				// A device that goes away only costs us its boosts.
				if err := input.Listen(ctx, dev, ctl.Interact); err != nil {
					log.Warn("input listener stopped", "device", dev, "err", err)
				}
				return nil
			})
		}
		log.Info("listening for input", "devices", devices)
	}

	if cfg.HTTP.Enabled {
		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           newRouter(set, svc, log),
			ReadHeaderTimeout: 5 * time.Second,
			// Streaming /pressure/watch requests end with the daemon.
			BaseContext: func(net.Listener) context.Context { return ctx },
		}
		g.Go(func() error {
			log.Info("http listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if v.ConfigFileUsed() != "" {
		if err := config.Watch(v, set, log); err != nil {
			log.Warn("config watch disabled", "err", err)
		}
	}

	err = g.Wait()
	log.Info("revshift stopped")
	return err
}

// reclaimSampler yields pages scanned and reclaimed since the last call.
type reclaimSampler interface {
	Sample() (scanned, reclaimed uint64, err error)
}

// newReclaimSampler reads a cgroup v2 group's memory.stat when group is set
// and the system-wide /proc/vmstat otherwise.
func newReclaimSampler(group, procRoot string) (reclaimSampler, error) {
	if group == "" {
		col, err := proc.NewReclaimCollector(procRoot)
		if err != nil {
			return nil, err
		}
		return col, nil
	}
	mounts, err := cgroup.Detect(procRoot)
	if err != nil {
		return nil, err
	}
	if v := mounts.Version(); v != cgroup.V2 && v != cgroup.Hybrid {
		return nil, fmt.Errorf("%s: %w", v, cgroup.ErrNoV2)
	}
	dir, err := mounts.Resolve(group)
	if err != nil {
		return nil, err
	}
	col, err := cgroup.NewReclaimCollector(dir)
	if err != nil {
		return nil, err
	}
	return col, nil
}

// feedReclaim turns reclaim counter deltas into Record calls.
func feedReclaim(ctx context.Context, svc *vmpressure.Service, col reclaimSampler, every time.Duration, log *slog.Logger) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			scanned, reclaimed, err := col.Sample()
			if err != nil {
				log.Warn("reclaim sample failed", "err", err)
				continue
			}
			svc.Record(scanned, reclaimed)
		}
	}
}

func newRouter(set *attr.Set, svc *vmpressure.Service, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Mount("/attrs", attr.Handler(set, log))
	if svc != nil {
		r.Mount("/pressure", vmpressure.Handler(svc))
	}
	return r
}
