package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/zenith/internal/cli"
	"github.com/Veraticus/zenith/internal/common"
	"github.com/Veraticus/zenith/internal/config"
	"github.com/Veraticus/zenith/internal/model"
	"github.com/Veraticus/zenith/internal/plaid"
	"github.com/Veraticus/zenith/internal/sheets"
	"github.com/Veraticus/zenith/internal/storage"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage users and connect external services",
		Long: `Sign up or log in as a local user, upgrade to premium, and authenticate
with Google Sheets and Plaid.

Users are identified by email only; there are no passwords.`,
	}

	cmd.AddCommand(authSignupCmd())
	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authLogoutCmd())
	cmd.AddCommand(authWhoamiCmd())
	cmd.AddCommand(authUpgradeCmd())
	cmd.AddCommand(authSheetsCmd())
	cmd.AddCommand(authPlaidCmd())
	return cmd
}

func authSignupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signup <email>",
		Short: "Register a user and log in as them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			user, err := store.CreateUser(ctx, args[0])
			if errors.Is(err, storage.ErrUserExists) {
				return common.NewUserError(fmt.Sprintf("%s is already registered. Use 'zenith auth login %s'.", args[0], args[0]), err)
			}
			if err != nil {
				return err
			}
			if err := store.SetCurrentUser(ctx, user.Email); err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Welcome to Zenith, "+user.Email+"!"))
			return nil
		},
	}
}

func authLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Log in as a registered user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetCurrentUser(ctx, args[0]); err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					return common.NewUserError(fmt.Sprintf("No user %s. Run 'zenith auth signup %s' first.", args[0], args[0]), err)
				}
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Logged in as "+args[0]))
			return nil
		},
	}
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ClearCurrentUser(ctx); err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatInfo("Logged out"))
			return nil
		},
	}
}

func authWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting user and plan",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			user := s.ws.User()
			printf(cmd, "%s (%s plan)\n", user.Email, user.Plan)
			if !user.IsPremium() {
				printf(cmd, "%s\n", cli.FormatInfo(fmt.Sprintf("Free plan: up to %d budgets, no export. Run 'zenith auth upgrade' for premium.", model.FreeBudgetLimit)))
			}
			return nil
		}),
	}
}

func authUpgradeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade the acting user to premium",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			if s.ws.User().IsPremium() {
				printf(cmd, "%s\n", cli.FormatInfo("Already on the premium plan"))
				return nil
			}
			if err := s.ws.Upgrade(cmd.Context()); err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Upgraded to premium: unlimited budgets and data export unlocked"))
			return nil
		}),
	}
}

func authSheetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets",
		Short: "Authorize Google Sheets export",
		Long: `Run the OAuth consent flow for Google Sheets. A browser URL is printed;
after you approve access the token is saved for 'zenith export sheets'.

Requires sheets.client_id and sheets.client_secret (or GOOGLE_SHEETS_CLIENT_ID
and GOOGLE_SHEETS_CLIENT_SECRET).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.SheetsOAuth()
			if cfg.ClientID == "" || cfg.ClientSecret == "" {
				return common.NewUserError("Google Sheets OAuth client is not configured", common.ErrMissingConfig)
			}

			interrupt := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Sheets authorization")
			ctx := interrupt.HandleInterrupts(cmd.Context())
			defer interrupt.Stop()

			_, err := sheets.Authenticate(ctx, cfg, func(url string) {
				printf(cmd, "%s\n\n  %s\n\n", cli.FormatPrompt("Open this URL to authorize Zenith:"), url)
			})
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Google Sheets authorized; token saved to "+cfg.TokenFile))
			return nil
		},
	}
}

func authPlaidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plaid",
		Short: "Link a bank through Plaid",
		Long: `Linking happens in two steps. 'link' prints a Link token for Plaid Link;
after completing Link, 'exchange' swaps the public token for an access token
to store as plaid.access_token.`,
	}

	link := &cobra.Command{
		Use:   "link",
		Short: "Create a Plaid Link token",
		Args:  cobra.NoArgs,
		RunE: withSession(func(cmd *cobra.Command, _ []string, s *session) error {
			client, err := plaidLinkClient(cmd)
			if err != nil {
				return err
			}
			token, err := client.CreateLinkToken(cmd.Context(), s.ws.User().ID)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n%s\n", cli.FormatInfo("Link token:"), token)
			return nil
		}),
	}

	exchange := &cobra.Command{
		Use:   "exchange <public-token>",
		Short: "Exchange a Link public token for an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := plaidLinkClient(cmd)
			if err != nil {
				return err
			}
			accessToken, itemID, err := client.ExchangePublicToken(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", cli.FormatSuccess("Bank linked (item "+itemID+")"))
			printf(cmd, "Add this to your config as plaid.access_token or set ZENITH_PLAID_ACCESS_TOKEN:\n%s\n", accessToken)
			return nil
		},
	}

	cmd.PersistentFlags().String("env", "", "Plaid environment (sandbox/production)")
	cmd.AddCommand(link, exchange)
	return cmd
}

func plaidLinkClient(cmd *cobra.Command) (*plaid.Client, error) {
	cfg := config.PlaidConfig()
	if env, _ := cmd.Flags().GetString("env"); env != "" {
		cfg.Environment = env
	}
	if cfg.ClientID == "" {
		cfg.ClientID = os.Getenv("PLAID_CLIENT_ID")
	}
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("PLAID_SECRET")
	}
	client, err := plaid.NewLinkClient(cfg)
	if err != nil {
		return nil, common.NewUserError("Plaid credentials missing. Set plaid.client_id and plaid.secret or PLAID_CLIENT_ID and PLAID_SECRET.", err)
	}
	return client, nil
}
