package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fetchd/internal/ipc"
)

func newCallCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "call METHOD [JSON-PARAMS]",
		Short: "Invoke any daemon method with a JSON parameter array",
		Example: `  fetchd call fetchd.tellWaiting '[0, 10]'
  fetchd call system.multicall '[[{"methodName":"fetchd.getVersion","params":[]}]]'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var params json.RawMessage
			if len(args) == 2 {
				trimmed := strings.TrimSpace(args[1])
				if !json.Valid([]byte(trimmed)) {
					return fmt.Errorf("params must be valid JSON")
				}
				params = json.RawMessage(trimmed)
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.CallRaw(args[0], params)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				if err := writeJSON(cmd, resp.Result); err != nil {
					return err
				}
				if resp.Fault {
					return fmt.Errorf("%s failed: %s", args[0], resp.FaultString)
				}
				return nil
			})
		},
	}
}
