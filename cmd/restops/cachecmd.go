package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xhit/go-str2duration/v2"

	"github.com/jonwraymond/restops/cache"
)

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and edit a file cache directory",
	}
	cmd.PersistentFlags().String("dir", "", "cache directory (env RESTOPS_CACHE_DIR, default cache.dir from --config)")
	cmd.PersistentFlags().StringP("config", "c", "", "path to restops.yaml for cache.dir and TTL policy (env RESTOPS_CONFIG)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print a live entry",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fc, err := openFileCache(cmd)
				if err != nil {
					return err
				}
				v, ok := fc.Get(cmd.Context(), args[0])
				if !ok {
					return fmt.Errorf("%w: %s", cache.ErrNotFound, args[0])
				}
				_, err = cmd.OutOrStdout().Write(v)
				return err
			},
		},
		newCacheSetCmd(),
		&cobra.Command{
			Use:   "delete KEY...",
			Short: "Remove entries",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				fc, err := openFileCache(cmd)
				if err != nil {
					return err
				}
				return fc.DeleteMultiple(cmd.Context(), args)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every entry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fc, err := openFileCache(cmd)
				if err != nil {
					return err
				}
				return fc.Clear(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "ls",
			Short: "List entries with size and expiry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				fc, err := openFileCache(cmd)
				if err != nil {
					return err
				}
				entries, err := fc.Entries(cmd.Context())
				if err != nil {
					return err
				}
				return writeEntries(cmd.OutOrStdout(), entries, time.Now())
			},
		},
	)
	return cmd
}

func newCacheSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store a value, read from stdin when VALUE is omitted",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, err := openFileCache(cmd)
			if err != nil {
				return err
			}
			var ttl time.Duration
			if s, _ := cmd.Flags().GetString("ttl"); s != "" {
				if ttl, err = str2duration.ParseDuration(s); err != nil {
					return fmt.Errorf("--ttl: %w", err)
				}
			}
			var value []byte
			if len(args) == 2 {
				value = []byte(args[1])
			} else if value, err = io.ReadAll(cmd.InOrStdin()); err != nil {
				return err
			}
			return fc.Set(cmd.Context(), args[0], value, ttl)
		},
	}
	cmd.Flags().String("ttl", "", "lifetime such as 90s, 12h or 1d (default: cache.default_ttl, clamped to cache.max_ttl)")
	return cmd
}

// openFileCache opens an existing cache directory with the same TTL policy
// the server applies.
func openFileCache(cmd *cobra.Command) (*cache.FileCache, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir := flagOrEnv(cmd, "dir", "RESTOPS_CACHE_DIR", cfg.Cache.Dir)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}
	return cache.NewFileCache(dir,
		cache.WithPolicy(cfg.Cache.Policy()),
		cache.WithLogger(newLogger(cmd, "warn")))
}

func writeEntries(w io.Writer, entries []cache.EntryInfo, now time.Time) error {
	slices.SortFunc(entries, func(a, b cache.EntryInfo) int { return strings.Compare(a.Key, b.Key) })

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tSIZE\tMODIFIED\tEXPIRES")
	var total int64
	for _, e := range entries {
		expires := "never"
		switch {
		case e.Expired:
			expires = "expired"
		case !e.ExpiresAt.IsZero():
			expires = humanize.RelTime(e.ExpiresAt, now, "ago", "from now")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Key, humanize.IBytes(uint64(e.Size)), humanize.RelTime(e.ModTime, now, "ago", "from now"), expires)
		total += e.Size
	}
	fmt.Fprintf(tw, "%s entries\t%s\t\t\n", humanize.Comma(int64(len(entries))), humanize.IBytes(uint64(total)))
	return tw.Flush()
}
