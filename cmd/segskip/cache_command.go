package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"segskip/internal/segcache"
	"segskip/internal/segments"
	"segskip/internal/sponsorblock"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the segment cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func withCache(ctx *commandContext, fn func(*segcache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := segcache.Open(cfg.CachePath(), segcache.Options{TTL: cfg.CacheTTL()})
	if err != nil {
		return fmt.Errorf("open segment cache: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *segcache.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					if entries == nil {
						entries = []segcache.Entry{}
					}
					return writeJSON(cmd, entries)
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Segment cache is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					skip := segments.Build(entry.Segments).Skip
					rows = append(rows, []string{
						entry.VideoID,
						strconv.Itoa(len(entry.Segments)),
						formatSeconds(skip.Total()),
						entry.FetchedAt.Local().Format(time.DateTime),
						entry.Categories,
					})
				}
				fmt.Fprintln(out, renderTable(store.Path(),
					[]string{"Video", "Segments", "Skipped", "Fetched", "Categories"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft, alignLeft}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [video-id|url]",
		Short: "Remove every cached entry, or only those for one video",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(ctx, func(store *segcache.Store) error {
				var (
					removed int64
					err     error
				)
				if len(args) == 1 {
					videoID, ok := sponsorblock.VideoIDFromURL(args[0])
					if !ok {
						return fmt.Errorf("%q is not a video id or video URL", args[0])
					}
					removed, err = store.Delete(cmd.Context(), videoID)
				} else {
					removed, err = store.Clear(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache %s\n", removed, plural(removed, "entry", "entries"))
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove entries older than the cache TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			age := olderThan
			if age <= 0 {
				age = cfg.CacheTTL()
			}
			if age <= 0 {
				return fmt.Errorf("cache_ttl is 0 (entries never expire); pass --older-than")
			}
			return withCache(ctx, func(store *segcache.Store) error {
				removed, err := store.Prune(cmd.Context(), age)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d cache %s older than %s\n",
					removed, plural(removed, "entry", "entries"), age)
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age threshold (defaults to sponsorblock.cache_ttl)")
	return cmd
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
