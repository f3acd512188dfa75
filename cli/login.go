package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *app) *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a phone number and one-time code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())

			if phone == "" {
				var err error
				phone, err = prompt(cmd, reader, "Phone number (international format, e.g. +15551234567): ")
				if err != nil {
					return err
				}
			}

			sent, err := app.client.sendCode(cmd.Context(), phone)
			if err != nil {
				return fmt.Errorf("send code: %w", err)
			}
			if sent.FloodWait {
				return fmt.Errorf("rate limited: %s", sent.Error)
			}
			if sent.Success == nil || !*sent.Success {
				return errors.New(messageOrError(sent))
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), sent.Message)

			code, err := prompt(cmd, reader, "Enter the code you received: ")
			if err != nil {
				return err
			}

			verified, err := app.client.verifyCode(cmd.Context(), phone, sent.PhoneCodeHash, code)
			if err != nil {
				return fmt.Errorf("verify code: %w", err)
			}
			switch {
			case verified.Success != nil && *verified.Success:
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), verified.Message)
				return nil
			case verified.PasswordRequired:
				return errors.New("this account has 2FA enabled, which telectl does not support yet")
			case verified.CodeExpired:
				return errors.New("the code expired, run login again to request a new one")
			case verified.CodeInvalid:
				return errors.New("the code was not accepted, run login again and re-check it")
			default:
				return errors.New(messageOrError(verified))
			}
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number in international format")

	return cmd
}

func prompt(cmd *cobra.Command, reader *bufio.Reader, label string) (string, error) {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), label)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	value := strings.TrimSpace(line)
	if value == "" {
		return "", errors.New("empty input")
	}
	return value, nil
}

func messageOrError(res authResponse) string {
	if res.Error != "" {
		return res.Error
	}
	if res.Message != "" {
		return res.Message
	}
	return "request failed"
}
