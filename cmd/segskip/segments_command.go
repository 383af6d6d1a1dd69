package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"segskip/internal/api"
	"segskip/internal/config"
	"segskip/internal/logging"
	"segskip/internal/segcache"
	"segskip/internal/segments"
	"segskip/internal/sponsorblock"
)

func newSegmentsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var noCache bool

	cmd := &cobra.Command{
		Use:   "segments <video-id|url>",
		Short: "Look up skip segments for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			videoID, ok := sponsorblock.VideoIDFromURL(args[0])
			if !ok {
				return fmt.Errorf("%q is not a video id or video URL", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			source, closeSource, err := openSegmentSource(cfg, !noCache)
			if err != nil {
				return err
			}
			defer closeSource()

			result := source.Segments(cmd.Context(), videoID)
			if asJSON {
				return writeJSON(cmd, api.SegmentsView{VideoID: videoID, Skip: result.Skip, Display: result.Display})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderSegments(videoID, result, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the segment cache")
	return cmd
}

func openSegmentSource(cfg *config.Config, useCache bool) (*sponsorblock.Source, func(), error) {
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	client := sponsorblock.NewConfiguredClient(cfg)
	if !useCache || !cfg.SponsorBlock.CacheEnabled {
		return sponsorblock.NewSource(client, nil, logger), func() {}, nil
	}
	store, err := segcache.Open(cfg.CachePath(), segcache.Options{TTL: cfg.CacheTTL()})
	if err != nil {
		return nil, nil, fmt.Errorf("open segment cache: %w", err)
	}
	return sponsorblock.NewSource(client, store, logger), func() { _ = store.Close() }, nil
}

func renderSegments(videoID string, result segments.Result, colorize bool) string {
	if result.Empty() {
		return fmt.Sprintf("No segments for %s", videoID)
	}
	rows := make([][]string, 0, len(result.Display))
	for i, seg := range result.Display {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			categoryLabel(seg.Category, colorize),
			formatSeconds(seg.Start),
			formatSeconds(seg.End),
			formatSeconds(seg.Duration()),
		})
	}
	var b strings.Builder
	b.WriteString(renderTable("Segments for "+videoID,
		[]string{"#", "Category", "Start", "End", "Length"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight}))
	b.WriteString("\n")
	b.WriteString(renderSkipSet(result.Skip))
	return b.String()
}

func renderSkipSet(skip segments.SkipSet) string {
	rows := make([][]string, 0, len(skip))
	for _, iv := range skip {
		rows = append(rows, []string{formatSeconds(iv.Start), formatSeconds(iv.End), formatSeconds(iv.Duration())})
	}
	table := renderTable("Skip ranges", []string{"Start", "End", "Length"}, rows,
		[]columnAlignment{alignRight, alignRight, alignRight})
	return table + fmt.Sprintf("\nTotal skipped: %s", formatSeconds(skip.Total()))
}

func newMergeCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "merge <start-end>...",
		Short:       "Merge overlapping time ranges into a skip set",
		Example:     "  segskip merge 10-20 5-12 30-40",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			intervals := make([]segments.Interval, 0, len(args))
			for _, arg := range args {
				iv, err := parseInterval(arg)
				if err != nil {
					return err
				}
				intervals = append(intervals, iv)
			}
			merged := segments.Merge(intervals)
			if asJSON {
				return writeJSON(cmd, merged)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderSkipSet(merged))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func parseInterval(raw string) (segments.Interval, error) {
	startText, endText, ok := strings.Cut(strings.TrimSpace(raw), "-")
	if !ok {
		return segments.Interval{}, fmt.Errorf("range %q: expected start-end", raw)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(startText), 64)
	if err != nil {
		return segments.Interval{}, fmt.Errorf("range %q: invalid start: %w", raw, errors.Unwrap(err))
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(endText), 64)
	if err != nil {
		return segments.Interval{}, fmt.Errorf("range %q: invalid end: %w", raw, errors.Unwrap(err))
	}
	iv := segments.Interval{Start: start, End: end}
	if !iv.Valid() {
		return segments.Interval{}, fmt.Errorf("range %q: start and end must be finite with start <= end", raw)
	}
	return iv, nil
}
