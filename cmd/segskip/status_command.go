package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"segskip/internal/api"
	"segskip/internal/preflight"
)

type statusReport struct {
	Address  string             `json:"address"`
	Running  bool               `json:"running"`
	Health   *api.Health        `json:"health,omitempty"`
	Sessions []api.SessionView  `json:"sessions"`
	Checks   []preflight.Result `json:"checks,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and session status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.apiClient()
			report := statusReport{Address: ctx.apiAddress(), Sessions: []api.SessionView{}}

			health, err := client.Health(cmd.Context())
			switch {
			case err == nil:
				report.Running = true
				report.Health = &health
				sessions, err := client.Sessions(cmd.Context())
				if err != nil {
					return fmt.Errorf("list sessions: %w", err)
				}
				report.Sessions = sessions
			case api.IsUnavailable(err):
			default:
				return fmt.Errorf("query daemon: %w", err)
			}

			if cfg, err := ctx.ensureConfig(); err == nil {
				report.Checks = preflight.RunAll(cmd.Context(), cfg)
			}

			if asJSON {
				return writeJSON(cmd, report)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStatus(report, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func renderStatus(report statusReport, colorize bool) string {
	lines := renderSectionHeader("Daemon", colorize)
	if !report.Running {
		lines = append(lines, renderStatusLine("Daemon", statusError, "not reachable at "+report.Address, colorize))
		return strings.Join(append(lines, renderChecks(report.Checks, colorize)...), "\n")
	}
	lines = append(lines,
		renderStatusLine("Daemon", statusOK, "running at "+report.Address, colorize),
		renderStatusLine("SponsorBlock", enabledKind(report.Health.SponsorBlock), yesNo(report.Health.SponsorBlock), colorize),
		renderStatusLine("Ad speedup", enabledKind(report.Health.AdSpeedup), yesNo(report.Health.AdSpeedup), colorize),
	)

	for _, sess := range report.Sessions {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Session "+shortID(sess.ID), colorize)...)

		playerKind, playerMsg := statusOK, "connected"
		if !sess.Connected {
			playerKind, playerMsg = statusWarn, "waiting for mpv"
		}
		lines = append(lines, renderStatusLine("Player", playerKind, playerMsg, colorize))

		video := sess.VideoID
		if video == "" {
			video = "none"
		}
		lines = append(lines, renderStatusLine("Video", statusInfo, video, colorize))
		lines = append(lines, renderStatusLine("Position", statusInfo,
			fmt.Sprintf("%s / %s", formatSeconds(sess.Position), formatSeconds(sess.Duration)), colorize))

		adKind := statusOK
		if sess.AdState == "ad" {
			adKind = statusWarn
		}
		lines = append(lines, renderStatusLine("Ad state", adKind, sess.AdState, colorize))
		lines = append(lines, renderStatusLine("Segments", statusInfo,
			fmt.Sprintf("%d skip ranges, %s total", len(sess.Skip), formatSeconds(sess.Skip.Total())), colorize))
		lines = append(lines, renderStatusLine("Skips", statusInfo,
			fmt.Sprintf("%d segments, %d ad skip requests", sess.SegmentSkips, sess.AdSkipRequests), colorize))
	}
	return strings.Join(append(lines, renderChecks(report.Checks, colorize)...), "\n")
}

func renderChecks(checks []preflight.Result, colorize bool) []string {
	if len(checks) == 0 {
		return nil
	}
	lines := append([]string{""}, renderSectionHeader("Checks", colorize)...)
	for _, check := range checks {
		kind := statusOK
		if !check.Passed {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	return lines
}

func enabledKind(enabled bool) statusKind {
	if enabled {
		return statusOK
	}
	return statusInfo
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
