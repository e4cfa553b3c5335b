package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fetchd/internal/ipc"
	"fetchd/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, the socket, the RPC endpoint and Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			running := daemonReachable(ctx.socketPath())
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Bind: !running})
			failed := preflight.Failed(results)

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				daemonKind := statusInfo
				if running {
					daemonKind = statusOK
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", daemonKind, yesNo(running), colorize))
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}

func daemonReachable(socket string) bool {
	client, err := ipc.Dial(socket)
	if err != nil {
		return false
	}
	_ = client.Close()
	return true
}
