//go:build linux

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// defaultAddr matches config's default http.addr.
const defaultAddr = "127.0.0.1:9478"

func main() {
	root := &cobra.Command{
		Use:   "revshift",
		Short: "Load-driven CPU hotplug and memory pressure notifications",
		Long: `revshift samples per-CPU load and brings CPUs online or offline through
hysteresis thresholds, boosting a second CPU on touch input. It also turns
/proc/vmstat reclaim activity into low/medium/oom pressure levels that
clients can watch.

Runtime tunables are exposed over HTTP next to the Prometheus metrics and
can be changed live, or by editing the config file.

Examples:
  revshift run --config /etc/revshift.yaml
  revshift watch --threshold medium
  revshift attrs set shift_all 200`,
		SilenceUsage: true,
	}

	root.AddCommand(newRunCmd(), newWatchCmd(), newAttrsCmd())

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
