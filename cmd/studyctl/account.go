package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"studytrack/internal/config"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the studytrack API",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			if email == "" {
				email = prompt(cmd, in, "Email: ")
			}
			if password == "" {
				password = os.Getenv("STUDYCTL_PASSWORD")
			}
			if password == "" {
				password = prompt(cmd, in, "Password: ")
			}

			identity, err := a.client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", identity.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (or STUDYCTL_PASSWORD)")
	return cmd
}

func prompt(cmd *cobra.Command, in *bufio.Reader, label string) string {
	_, _ = fmt.Fprint(cmd.OutOrStdout(), label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget stored credentials",
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if err := a.client.Logout(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		}),
	}
}

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Manage the studyctl config file"}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(opts.configPath); err == nil {
				return fmt.Errorf("%s already exists", opts.configPath)
			}
			if err := config.DefaultCLIConfig().Save(opts.configPath); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", opts.configPath)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadCLI(opts.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "api_url: %s\ndb_path: %s\nlabel_max_length: %d\nweek_starts_on: %s\ntimezone: %s\nnotify: %t\n",
				cfg.APIURL, cfg.DBPath, cfg.LabelMaxLength, cfg.WeekStart(), cfg.Location(), cfg.Notify)
			return nil
		},
	})
	return cfgCmd
}
