package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/btouchard/gox/internal/native"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the native build cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List cached programs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCache(listCache)
			},
		},
		&cobra.Command{
			Use:   "clean",
			Short: "Remove every cached program",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCache(func(c *native.Cache) error {
					n, err := c.Clean()
					if err != nil {
						return err
					}
					fmt.Printf("Removed %d cached program(s)\n", n)
					return nil
				})
			},
		},
	)
	return cmd
}

func withCache(fn func(*native.Cache) error) error {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return err
	}
	c, err := native.OpenCache(osfs.New(cfg.CacheDir), cfg.CacheIndex())
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

func listCache(c *native.Cache) error {
	all, err := c.List()
	if err != nil {
		return err
	}
	if len(all) == 0 {
		fmt.Println("cache is empty")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tSCRIPT\tSIZE\tHITS\tLAST USED")
	for _, a := range all {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", a.Key, a.Script, humanSize(a.Size), a.Hits, a.LastUsed.Format(time.DateTime))
	}
	return w.Flush()
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
