package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"fetchd/internal/buildinfo"
	"fetchd/internal/rpc"
)

func newViewCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newStatusCommand(ctx),
		newListCommand(ctx, "active", "List active downloads", rpc.MethodTellActive, false),
		newListCommand(ctx, "waiting", "List waiting downloads in queue order", rpc.MethodTellWaiting, true),
		newListCommand(ctx, "stopped", "List finished and removed downloads", rpc.MethodTellStopped, true),
		newStatCommand(ctx),
		newVersionCommand(ctx),
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status GID",
		Short: "Show the status of one download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := ctx.callRaw(rpc.MethodTellStatus, args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, raw)
			}
			var status taskStatus
			if err := json.Unmarshal(raw, &status); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderStatus(status, shouldColorize(out)))
			return nil
		},
	}
}

func renderStatus(s taskStatus, colorize bool) string {
	total := textInt(s.TotalLength)
	completed := textInt(s.CompletedLength)
	pairs := [][2]string{
		{"GID", s.GID},
		{"State", colorState(s.Status, colorize)},
		{"Size", formatBytes(total)},
		{"Completed", fmt.Sprintf("%s (%s)", formatBytes(completed), formatProgress(completed, total))},
		{"Uploaded", formatBytes(textInt(s.UploadLength))},
		{"Speed", fmt.Sprintf("down %s, up %s", formatRate(textInt(s.DownloadSpeed)), formatRate(textInt(s.UploadSpeed)))},
		{"Directory", s.Dir},
	}
	if s.ErrorCode != "" && s.ErrorCode != "0" {
		pairs = append(pairs, [2]string{"Error code", s.ErrorCode})
	}
	if len(s.FollowedBy) > 0 {
		pairs = append(pairs, [2]string{"Followed by", strings.Join(s.FollowedBy, ", ")})
	}
	if s.BelongsTo != "" {
		pairs = append(pairs, [2]string{"Belongs to", s.BelongsTo})
	}

	var b strings.Builder
	b.WriteString(renderFields(pairs))
	if len(s.Files) == 0 {
		return b.String()
	}
	rows := make([][]string, 0, len(s.Files))
	for _, f := range s.Files {
		length := "-"
		if f.Length != "" {
			length = formatBytes(textInt(f.Length))
		}
		rows = append(rows, []string{f.Index, f.Path, length, formatCount(len(f.URIs))})
	}
	b.WriteString(renderTable([]string{"#", "Path", "Size", "URIs"}, rows, []columnAlignment{alignRight, alignLeft, alignRight, alignRight}))
	return b.String()
}

func newListCommand(ctx *commandContext, use, short, method string, windowed bool) *cobra.Command {
	var offset int
	var num int
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var params []any
			if windowed {
				params = []any{offset, num}
			}
			raw, err := ctx.callRaw(method, params...)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, raw)
			}
			var statuses []taskStatus
			if err := json.Unmarshal(raw, &statuses); err != nil {
				return fmt.Errorf("decode %s: %w", use, err)
			}
			out := cmd.OutOrStdout()
			if len(statuses) == 0 {
				fmt.Fprintf(out, "No %s downloads\n", use)
				return nil
			}
			fmt.Fprint(out, renderStatusTable(statuses, shouldColorize(out)))
			return nil
		},
	}
	if windowed {
		cmd.Flags().IntVar(&offset, "offset", 0, "Start offset; negative values count back from the end")
		cmd.Flags().IntVarP(&num, "num", "n", 100, "Maximum number of downloads to list")
	}
	return cmd
}

func renderStatusTable(statuses []taskStatus, colorize bool) string {
	rows := make([][]string, 0, len(statuses))
	for _, s := range statuses {
		total := textInt(s.TotalLength)
		completed := textInt(s.CompletedLength)
		rows = append(rows, []string{
			s.GID,
			colorState(s.Status, colorize),
			s.name(),
			formatBytes(total),
			formatProgress(completed, total),
			formatRate(textInt(s.DownloadSpeed)),
		})
	}
	return renderTable(
		[]string{"GID", "State", "Name", "Size", "Progress", "Speed"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	)
}

func newStatCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Show aggregate queue counts, speeds and limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := ctx.callRaw(rpc.MethodGetGlobalStat)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, raw)
			}
			var stat globalStat
			if err := json.Unmarshal(raw, &stat); err != nil {
				return fmt.Errorf("decode stat: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderFields([][2]string{
				{"Active", stat.NumActive},
				{"Waiting", stat.NumWaiting},
				{"Stopped", stat.NumStopped},
				{"Download", formatRate(textInt(stat.DownloadSpeed))},
				{"Upload", formatRate(textInt(stat.UploadSpeed))},
				{"Download limit", formatLimit(textInt(stat.DownloadLimit))},
				{"Upload limit", formatLimit(textInt(stat.UploadLimit))},
			}))
			return nil
		},
	}
}

func newVersionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show CLI and daemon versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var info versionInfo
			if err := ctx.call(&info, rpc.MethodGetVersion); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"cli":    buildinfo.ResolvedVersion(),
					"daemon": info,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "fetchd CLI %s\n", buildinfo.ResolvedVersion())
			fmt.Fprintf(out, "daemon %s\n", info.Version)
			if len(info.EnabledFeatures) > 0 {
				fmt.Fprintf(out, "features: %s\n", strings.Join(info.EnabledFeatures, ", "))
			}
			return nil
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
