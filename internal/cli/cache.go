package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/entitygraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local layout and artifact cache",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "cache directory (default: user cache dir)")

	open := func() (*cache.FileCache, bool, error) {
		d := dir
		if d == "" {
			var err error
			if d, err = cacheDir(); err != nil {
				return nil, false, fmt.Errorf("get cache dir: %w", err)
			}
		}
		if _, err := os.Stat(d); os.IsNotExist(err) {
			printInfo(c.stdout, "Cache is empty")
			printDetail(c.stdout, "Directory: %s", d)
			return nil, false, nil
		}
		fc, err := cache.NewFileCache(d)
		return fc, err == nil, err
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := open()
			if !ok {
				return err
			}
			s, err := fc.Stats()
			if err != nil {
				return err
			}
			printKeyValue(c.stdout, "Directory", fc.Dir())
			printKeyValue(c.stdout, "Entries", fmt.Sprint(s.Entries))
			printKeyValue(c.stdout, "Expired", fmt.Sprint(s.Expired))
			printKeyValue(c.stdout, "Size", formatBytes(s.Bytes))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Remove expired and unreadable entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := open()
			if !ok {
				return err
			}
			n, err := fc.Prune()
			if err != nil {
				return err
			}
			printSuccess(c.stdout, "Pruned %d cached entries", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := open()
			if !ok {
				return err
			}
			n, err := fc.Clear()
			if err != nil {
				return err
			}
			printSuccess(c.stdout, "Cleared %d cached entries", n)
			printDetail(c.stdout, "Directory: %s", fc.Dir())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := dir
			if d == "" {
				var err error
				if d, err = cacheDir(); err != nil {
					return fmt.Errorf("get cache dir: %w", err)
				}
			}
			fmt.Fprintln(c.stdout, d)
			return nil
		},
	})

	return cmd
}

func formatBytes(n int64) string {
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
