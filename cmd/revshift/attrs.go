//go:build linux

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newAttrsCmd() *cobra.Command {
	var addr string
	client := &http.Client{Timeout: 5 * time.Second}

	cmd := &cobra.Command{
		Use:   "attrs",
		Short: "List the daemon's runtime tunables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body, err := call(client, http.MethodGet, attrURL(addr, ""), "")
			if err != nil {
				return err
			}
			var values map[string]uint64
			if err := json.Unmarshal(body, &values); err != nil {
				return fmt.Errorf("decode attributes: %w", err)
			}
			printAttrs(os.Stdout, values)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", defaultAddr, "daemon HTTP address")

	cmd.AddCommand(&cobra.Command{
		Use:   "get NAME",
		Short: "Print one tunable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := call(client, http.MethodGet, attrURL(addr, args[0]), "")
			if err != nil {
				return err
			}
			fmt.Print(string(body))
			return nil
		},
	}, &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Change one tunable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := call(client, http.MethodPut, attrURL(addr, args[0]), args[1])
			return err
		},
	})
	return cmd
}

func attrURL(addr, name string) string {
	return "http://" + addr + "/attrs/" + name
}

func call(client *http.Client, method, url, body string) ([]byte, error) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return b, nil
}

func printAttrs(w io.Writer, values map[string]uint64) {
	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	slices.Sort(names)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE")
	fmt.Fprintln(tw, "----\t-----")
	for _, n := range names {
		fmt.Fprintf(tw, "%s\t%d\n", n, values[n])
	}
	tw.Flush()
}
