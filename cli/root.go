package cli

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "telectl",
		Short:         "Telegate CLI: log in to Telegram through a telegate server",
		Long:          "telectl drives the telegate auth endpoint from the terminal: request login codes, verify them, inspect the stored session and log out.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newLoginCmd(app),
		newStatusCmd(app),
		newLogoutCmd(app),
		newSessionCmd(app),
	)

	return rootCmd
}
