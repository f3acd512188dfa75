package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check whether the stored session is still valid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := app.client.checkSession(cmd.Context())
			if err != nil {
				return fmt.Errorf("check session: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			connected := res.IsConnected != nil && *res.IsConnected
			if connected {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "connected:", res.Message)
			} else {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "not connected:", messageOrError(res))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw server response as JSON")

	return cmd
}
