package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/telegate/telegate/auth"
	"github.com/telegate/telegate/sessionstore"
)

func newSessionCmd(app *app) *cobra.Command {
	var (
		restore bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or repair the locally stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if restore {
				restored, err := app.store.RestoreFromBackup()
				if err != nil {
					return fmt.Errorf("restore from backup: %w", err)
				}
				if !restored {
					return errors.New("no usable backup to restore from")
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "primary slot restored from backup")
			}

			if refresh {
				if err := app.store.Refresh(); err != nil {
					return fmt.Errorf("refresh session: %w", err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session expiry window extended")
			}

			diag, err := app.store.Diagnostics()
			if err != nil {
				return fmt.Errorf("read session store: %w", err)
			}
			printDiagnostics(cmd, diag)
			return nil
		},
	}

	cmd.Flags().BoolVar(&restore, "restore", false, "Copy the backup slot over the primary")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Re-stamp the stored session to extend its expiry")

	return cmd
}

func printDiagnostics(cmd *cobra.Command, diag sessionstore.Diagnostics) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "store:    %s\n", diag.Path)
	if diag.DeviceID != "" {
		_, _ = fmt.Fprintf(out, "device:   %s\n", diag.DeviceID)
	}
	_, _ = fmt.Fprintf(out, "primary:  %s\n", describeSlot(diag.Primary))
	_, _ = fmt.Fprintf(out, "backup:   %s\n", describeSlot(diag.Backup))
}

func describeSlot(slot sessionstore.SlotInfo) string {
	if !slot.Present {
		return "empty"
	}
	state := "valid"
	if slot.Expired {
		state = "expired"
	}
	desc := fmt.Sprintf("%s (age %s)", state, slot.Age.Round(time.Minute))
	if slot.PhoneNumber != "" {
		desc += " " + auth.MaskPhoneNumber(slot.PhoneNumber)
	}
	return desc
}
