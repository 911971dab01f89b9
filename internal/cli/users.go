package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/library/internal/entrypoint"
)

func newCreateLibrarianCommand(deps Deps) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "create-librarian <username>",
		Short: "Add a LIBRARIAN login",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword(cmd, deps.Stdin); err != nil {
					return err
				}
			}
			return withApp(cmd.Context(), deps, func(app *entrypoint.App) error {
				user, err := app.Auth.CreateLibrarian(cmd.Context(), args[0], password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created librarian %q (id %d)\n", user.Username, user.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	return cmd
}

func newResetPasswordCommand(deps Deps) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password <username>",
		Short: "Set a user's password and end their sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = promptPassword(cmd, deps.Stdin); err != nil {
					return err
				}
			}
			return withApp(cmd.Context(), deps, func(app *entrypoint.App) error {
				if err := app.Auth.SetPasswordByUsername(cmd.Context(), args[0], password); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Password reset for %q\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "new password (prompted when omitted)")
	return cmd
}

// promptPassword reads a password with masking when stdin is a terminal and
// as a plain line otherwise, so it can be piped in scripts.
func promptPassword(cmd *cobra.Command, in io.Reader) (string, error) {
	if in == nil {
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
			raw, err := term.ReadPassword(fd)
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return strings.TrimSpace(string(raw)), nil
		}
		in = os.Stdin
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	password := strings.TrimSpace(line)
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}
