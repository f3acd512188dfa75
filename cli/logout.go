package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLogoutCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the server and forget it locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := app.client.logout(cmd.Context())
			if err != nil {
				// The server is unreachable; the local copy must still go.
				if cerr := app.store.Clear(); cerr != nil {
					return fmt.Errorf("logout failed and local clear failed: %w", cerr)
				}
				return fmt.Errorf("logout: %w (local session cleared)", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), messageOrError(res))
			return nil
		},
	}
}
