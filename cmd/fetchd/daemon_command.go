package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fetchd/internal/buildinfo"
	"fetchd/internal/daemonctl"
	"fetchd/internal/daemonrun"
	"fetchd/internal/ipc"
)

const (
	stopWaitTimeout  = 10 * time.Second
	startWaitTimeout = 10 * time.Second
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the fetchd daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if ctx.socketFlag != nil {
				if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
					cfg.Paths.SocketPath = socket
				}
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
				Version:     buildinfo.ResolvedVersion(),
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in log output")

	cmd.AddCommand(newDaemonStartCommand(ctx))
	cmd.AddCommand(newDaemonStatusCommand(ctx))
	cmd.AddCommand(newDaemonStopCommand(ctx))
	cmd.AddCommand(newDaemonRestartCommand(ctx))
	return cmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon runtime status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return fmt.Errorf("daemon status: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderDaemonStatus(status, colorize) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
}

func renderDaemonStatus(status *ipc.StatusResponse, colorize bool) []string {
	lines := renderSectionHeader("Daemon", colorize)
	running := statusOK
	if !status.Running {
		running = statusError
	}
	lines = append(lines,
		renderStatusLine("Running", running, yesNo(status.Running), colorize),
		renderStatusLine("PID", statusInfo, fmt.Sprintf("%d", status.PID), colorize),
		renderStatusLine("Session", statusInfo, status.SessionID, colorize),
	)
	if !status.StartedAt.IsZero() {
		uptime := time.Since(status.StartedAt).Truncate(time.Second)
		lines = append(lines, renderStatusLine("Uptime", statusInfo, uptime.String(), colorize))
	}
	listen := status.Listen
	listenKind := statusOK
	if listen == "" {
		listen = "disabled"
		listenKind = statusInfo
	}
	lines = append(lines,
		renderStatusLine("RPC endpoint", listenKind, listen, colorize),
		renderStatusLine("Database", statusInfo, status.DatabasePath, colorize),
		renderStatusLine("Log", statusInfo, status.LogPath, colorize),
		"",
	)
	lines = append(lines, renderSectionHeader("Queue", colorize)...)
	lines = append(lines,
		renderStatusLine("Active", statusInfo, formatCount(status.NumActive), colorize),
		renderStatusLine("Waiting", statusInfo, formatCount(status.NumWaiting), colorize),
		renderStatusLine("Stopped", statusInfo, formatCount(status.NumStopped), colorize),
		renderStatusLine("Download", statusInfo, fmt.Sprintf("%s (limit %s)", formatRate(status.DownloadSpeed), formatLimit(status.DownloadLimit)), colorize),
		renderStatusLine("Upload", statusInfo, fmt.Sprintf("%s (limit %s)", formatRate(status.UploadSpeed), formatLimit(status.UploadLimit)), colorize),
	)
	return lines
}

func (c *commandContext) launchOptions(logLevel string) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{SocketPath: c.socketPath(), LogLevel: logLevel}
	if c.configFlag != nil {
		opts.ConfigPath = strings.TrimSpace(*c.configFlag)
	}
	return opts
}

func newDaemonStartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), executable, ctx.launchOptions(logLevel), startWaitTimeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.State == daemonctl.StartStateAlreadyRunning {
				fmt.Fprintf(out, "Daemon already running (pid %d)\n", result.PID)
				return nil
			}
			fmt.Fprintf(out, "Daemon started (pid %d)\n", result.PID)
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level for the started daemon")
	return cmd
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Long:  "Ask the daemon to exit and kill it if it is still running after a grace period.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), stopWaitTimeout)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged && !result.ForcedKill {
				return errors.New("daemon declined the shutdown request")
			}
			if result.ForcedKill {
				fmt.Fprintf(out, "Daemon killed (pid %d)\n", result.PID)
				return nil
			}
			fmt.Fprintln(out, "Daemon stopped")
			return nil
		},
	}
}

func newDaemonRestartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the background daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			executable, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.Restart(ctx.socketPath(), ctx.configValue(), executable, ctx.launchOptions(logLevel), stopWaitTimeout, startWaitTimeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !result.WasRunning {
				fmt.Fprintln(out, "Daemon was not running")
			}
			fmt.Fprintf(out, "Daemon started (pid %d)\n", result.Start.PID)
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level for the started daemon")
	return cmd
}
