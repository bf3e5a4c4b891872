package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iho/partnerledger/internal/adapter/http/dto"
	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/auth"
	"github.com/iho/partnerledger/internal/infrastructure/config"
	"github.com/iho/partnerledger/internal/infrastructure/logger"
	"github.com/iho/partnerledger/internal/infrastructure/postgres"
)

// Overridden in tests.
var (
	runMigrationsUp   = postgres.RunMigrations
	runMigrationsDown = postgres.RunMigrationsDown
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	baseURL string
	token   string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "partnerledger-cli",
		Short:         "PartnerLedger CLI tool",
		Long:          `A command line interface for operating the PartnerLedger API and database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("PARTNERLEDGER_URL", "http://localhost:8080"), "Base URL of the PartnerLedger API")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PARTNERLEDGER_TOKEN"), "Bearer token for the API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(walletCmd(opts), clientCmd(opts), migrateCmd(), tokenCmd())
	return rootCmd
}

func walletCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Wallet operations",
	}

	summary := &cobra.Command{
		Use:   "summary <owner-id>",
		Short: "Show the balance summary of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var s dto.SummaryResponse
			if err := newAPIClient(opts).do(http.MethodGet, walletPath(args[0], "summary"), &s); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), s)
		},
	}

	verify := &cobra.Command{
		Use:   "verify <owner-id>",
		Short: "Compare the materialized balance with the transaction history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.IntegrityReportResponse
			if err := newAPIClient(opts).do(http.MethodPost, walletPath(args[0], "verify"), &report); err != nil {
				return fmt.Errorf("integrity check FAILED: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Integrity check PASSED")
			return printJSON(cmd.OutOrStdout(), report)
		},
	}

	rebuild := &cobra.Command{
		Use:   "rebuild <owner-id>",
		Short: "Rebuild the materialized balance and lift an integrity hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var w dto.WalletResponse
			if err := newAPIClient(opts).do(http.MethodPost, walletPath(args[0], "rebuild"), &w); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), w)
		},
	}

	var limit int
	transactions := &cobra.Command{
		Use:   "transactions <owner-id>",
		Short: "List the newest transactions of a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var txs []dto.TransactionResponse
			path := walletPath(args[0], "transactions") + "?limit=" + strconv.Itoa(limit)
			if err := newAPIClient(opts).do(http.MethodGet, path, &txs); err != nil {
				return err
			}
			return printTransactions(cmd.OutOrStdout(), txs)
		},
	}
	transactions.Flags().IntVar(&limit, "limit", 20, "Number of transactions to show")

	cmd.AddCommand(summary, verify, rebuild, transactions)
	return cmd
}

func clientCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Client payment operations",
	}

	reconcile := &cobra.Command{
		Use:   "reconcile <client-id>",
		Short: "Show what a client owes across their projects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var rec dto.ClientReconciliationResponse
			path := "/api/v1/clients/" + url.PathEscape(args[0]) + "/reconciliation"
			if err := newAPIClient(opts).do(http.MethodGet, path, &rec); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.AddCommand(reconcile)
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	run := func(fn func(string, string, zerolog.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.NewWithWriter(logger.Config{Level: cfg.LogLevel, Format: "console"}, cmd.ErrOrStderr())
			return fn(cfg.DatabaseURL, cfg.MigrationsPath, log)
		}
	}

	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all pending migrations", Args: cobra.NoArgs, RunE: run(runMigrationsUp)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", Args: cobra.NoArgs, RunE: run(runMigrationsDown)},
	)
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}

			r := domain.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration).Generate(&domain.User{ID: userID, Role: r})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Subject of the token; the owner id for partners")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "admin, operator or partner")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		token:   opts.token,
		http:    &http.Client{Timeout: opts.timeout},
	}
}

// do sends a bodyless request and decodes a 2xx JSON response into out.
func (c *apiClient) do(method, path string, out any) error {
	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.Unmarshal(body, out)
}

func walletPath(ownerID, suffix string) string {
	return "/api/v1/wallets/" + url.PathEscape(ownerID) + "/" + suffix
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTransactions(w io.Writer, txs []dto.TransactionResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCATEGORY\tAMOUNT\tSTATUS\tSOURCE\tCREATED")
	for _, t := range txs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d %s\t%s\t%s\t%s\n",
			t.ID, t.Type, t.Category, t.Amount, t.Currency, t.Status,
			truncate(t.SourceRef, 24), t.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
