//go:build linux

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ja7ad/revshift/pkg/vmpressure"
)

func newWatchCmd() *cobra.Command {
	var (
		addr      string
		threshold string
		count     int
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print memory pressure events from a running daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := vmpressure.ParseLevel(threshold); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			u := fmt.Sprintf("http://%s/pressure/watch?threshold=%s", addr, url.QueryEscape(threshold))
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return fmt.Errorf("%s: %s", resp.Status, msg)
			}
			return printEvents(ctx.Err, resp.Body, os.Stdout, count)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "daemon HTTP address")
	cmd.Flags().StringVarP(&threshold, "threshold", "t", "low", "lowest level to report (low, medium, oom)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "exit after n events (0 = until Ctrl-C)")
	return cmd
}

// printEvents renders the NDJSON stream from r as a table on w.
func printEvents(interrupted func() error, r io.Reader, w io.Writer, count int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tLEVEL\tSCORE")
	fmt.Fprintln(tw, "----\t-----\t-----")
	tw.Flush()

	sc := bufio.NewScanner(r)
	for n := 0; count == 0 || n < count; n++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil && interrupted() == nil {
				return err
			}
			return nil
		}
		var st vmpressure.Status
		if err := json.Unmarshal(sc.Bytes(), &st); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\n", time.Now().Format("2006-01-02 15:04:05"), st.Level, st.Score)
		tw.Flush()
	}
	return nil
}
