package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"webm-trimmer/internal/database"
)

func newPasswordCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Manage the login password",
		Long: `Manage the login password for the web interface.

While no password is set the interface is open to anyone who can reach it.`,
	}
	cmd.AddCommand(newPasswordSetCommand())
	cmd.AddCommand(newPasswordStatusCommand())
	return cmd
}

func newPasswordSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Set or replace the password; existing sessions are logged out",
		Long: `Set or replace the password. It is read twice from the terminal, or
as two lines from standard input when that is not a terminal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			r := newSecretReader(cmd.InOrStdin(), cmd.ErrOrStderr())
			password, err := r.read("Enter new password: ")
			if err != nil {
				return err
			}
			confirm, err := r.read("Confirm new password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}
			if len(password) < database.MinPasswordLength {
				return fmt.Errorf("password must be at least %d characters", database.MinPasswordLength)
			}

			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SetPassword(cmd.Context(), password); err != nil {
				return fmt.Errorf("failed to set password: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password updated. All sessions have been logged out.")
			return nil
		},
	}
}

func newPasswordStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a password is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if db.HasUsers(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "Password: configured (login required)")
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Password: not set (open access)")
			}
			return nil
		},
	}
}

type secretReader struct {
	in     io.Reader
	prompt io.Writer
	lines  *bufio.Reader
}

func newSecretReader(in io.Reader, prompt io.Writer) *secretReader {
	return &secretReader{in: in, prompt: prompt}
}

func (s *secretReader) read(prompt string) (string, error) {
	if f, ok := s.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(s.prompt, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(s.prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	if s.lines == nil {
		s.lines = bufio.NewReader(s.in)
	}
	line, err := s.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
