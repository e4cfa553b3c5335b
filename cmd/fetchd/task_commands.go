package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fetchd/internal/config"
	"fetchd/internal/options"
	"fetchd/internal/rpc"
)

// addFlags collects the option flags shared by the add commands.
type addFlags struct {
	dir      string
	out      string
	position int
	extra    []string
}

func (f *addFlags) register(cmd *cobra.Command, withOut bool) {
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Directory to store the download in")
	if withOut {
		cmd.Flags().StringVarP(&f.out, "out", "o", "", "File name for the download")
	}
	cmd.Flags().IntVarP(&f.position, "position", "p", -1, "Insert at this waiting-queue position instead of appending")
	cmd.Flags().StringArrayVar(&f.extra, "option", nil, "Additional task option as key=value (repeatable)")
}

func (f *addFlags) options() (map[string]string, error) {
	opts, err := parseOptionPairs(f.extra)
	if err != nil {
		return nil, err
	}
	if dir := strings.TrimSpace(f.dir); dir != "" {
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve --dir: %w", err)
		}
		opts[options.Dir] = expanded
	}
	if out := strings.TrimSpace(f.out); out != "" {
		opts[options.Out] = out
	}
	return opts, nil
}

// withPosition appends the position parameter when one was requested.
func (f *addFlags) withPosition(params ...any) []any {
	if f.position >= 0 {
		params = append(params, f.position)
	}
	return params
}

func newTaskCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newAddCommand(ctx),
		newAddTorrentCommand(ctx),
		newAddMetalinkCommand(ctx),
		newRemoveCommand(ctx),
		newMoveCommand(ctx),
		newOptionCommand(ctx),
		newGlobalOptionCommand(ctx),
	}
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var flags addFlags
	cmd := &cobra.Command{
		Use:   "add URI...",
		Short: "Queue a download from one or more mirror URIs of the same file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options()
			if err != nil {
				return err
			}
			var gid string
			if err := ctx.call(&gid, rpc.MethodAddURI, flags.withPosition(args, opts)...); err != nil {
				return err
			}
			return printAdded(cmd, ctx, []string{gid})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newAddTorrentCommand(ctx *commandContext) *cobra.Command {
	var flags addFlags
	var uris []string
	cmd := &cobra.Command{
		Use:   "add-torrent FILE",
		Short: "Queue a download described by a .torrent file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := readBase64(args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			if uris == nil {
				uris = []string{}
			}
			var gid string
			if err := ctx.call(&gid, rpc.MethodAddTorrent, flags.withPosition(encoded, uris, opts)...); err != nil {
				return err
			}
			return printAdded(cmd, ctx, []string{gid})
		},
	}
	flags.register(cmd, false)
	cmd.Flags().StringArrayVar(&uris, "uri", nil, "Web seed URI (repeatable)")
	return cmd
}

func newAddMetalinkCommand(ctx *commandContext) *cobra.Command {
	var flags addFlags
	cmd := &cobra.Command{
		Use:   "add-metalink FILE",
		Short: "Queue one download per file described by a Metalink document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := readBase64(args[0])
			if err != nil {
				return err
			}
			opts, err := flags.options()
			if err != nil {
				return err
			}
			var gids []string
			if err := ctx.call(&gids, rpc.MethodAddMetalink, flags.withPosition(encoded, opts)...); err != nil {
				return err
			}
			return printAdded(cmd, ctx, gids)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func readBase64(path string) (string, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

func printAdded(cmd *cobra.Command, ctx *commandContext, gids []string) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, gids)
	}
	out := cmd.OutOrStdout()
	for _, gid := range gids {
		fmt.Fprintf(out, "Queued GID %s\n", gid)
	}
	return nil
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove GID",
		Short: "Remove a waiting or active download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var gid string
			if err := ctx.call(&gid, rpc.MethodRemove, args[0]); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, gid)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed GID %s\n", gid)
			return nil
		},
	}
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	var origin string
	cmd := &cobra.Command{
		Use:   "move GID OFFSET",
		Short: "Move a waiting download within the queue",
		Long: "Move a waiting download within the queue.\n\n" +
			"OFFSET is relative to --origin: set (queue head), cur (current position) or end (queue tail).\n" +
			"Place negative offsets after --, for example: fetchd move --origin cur 3 -- -1",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid offset %q: %w", args[1], err)
			}
			var pos int
			if err := ctx.call(&pos, rpc.MethodChangePosition, args[0], offset, originName(origin)); err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, pos)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "GID %s is now at position %d\n", args[0], pos)
			return nil
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "set", "Offset origin: set, cur or end")
	return cmd
}

// originName accepts the short flag forms and passes anything else through
// so the daemon reports the invalid origin.
func originName(origin string) string {
	switch strings.ToLower(strings.TrimSpace(origin)) {
	case "set", "pos_set":
		return "POS_SET"
	case "cur", "pos_cur":
		return "POS_CUR"
	case "end", "pos_end":
		return "POS_END"
	default:
		return origin
	}
}

func newOptionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "option GID [key=value...]",
		Short: "Show or change the options of a download",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				var values map[string]string
				if err := ctx.call(&values, rpc.MethodGetOption, args[0]); err != nil {
					return err
				}
				return printOptions(cmd, ctx, values)
			}
			changes, err := parseOptionPairs(args[1:])
			if err != nil {
				return err
			}
			var result string
			if err := ctx.call(&result, rpc.MethodChangeOption, args[0], changes); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated GID %s\n", args[0])
			return nil
		},
	}
}

func newGlobalOptionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "global-option [key=value...]",
		Short: "Show or change process-wide options",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				var values map[string]string
				if err := ctx.call(&values, rpc.MethodGetGlobalOption); err != nil {
					return err
				}
				return printOptions(cmd, ctx, values)
			}
			changes, err := parseOptionPairs(args)
			if err != nil {
				return err
			}
			var result string
			if err := ctx.call(&result, rpc.MethodChangeGlobalOption, changes); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Updated global options")
			return nil
		},
	}
}

func printOptions(cmd *cobra.Command, ctx *commandContext, values map[string]string) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, values)
	}
	if len(values) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No options set")
		return nil
	}
	pairs := make([][2]string, 0, len(values))
	for _, key := range sortedKeys(values) {
		pairs = append(pairs, [2]string{key, values[key]})
	}
	fmt.Fprint(cmd.OutOrStdout(), renderFields(pairs))
	return nil
}
