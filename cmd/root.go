// Package cmd implements the CLI commands for the Gmail MCP engine.
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/thegrumpylion/google-mcp/internal/auth"
	"github.com/thegrumpylion/google-mcp/internal/batch"
	"github.com/thegrumpylion/google-mcp/internal/config"
	"github.com/thegrumpylion/google-mcp/internal/dispatch"
	"github.com/thegrumpylion/google-mcp/internal/engine"
	"github.com/thegrumpylion/google-mcp/internal/gmailclient"
	"github.com/thegrumpylion/google-mcp/internal/gmailops"
	"github.com/thegrumpylion/google-mcp/internal/logging"
	"github.com/thegrumpylion/google-mcp/internal/metrics"
	"github.com/thegrumpylion/google-mcp/internal/phase"
	"github.com/thegrumpylion/google-mcp/internal/ratelimit"
	"github.com/thegrumpylion/google-mcp/internal/rules"
	"github.com/thegrumpylion/google-mcp/internal/server"
	"github.com/thegrumpylion/google-mcp/internal/session"
	"github.com/thegrumpylion/google-mcp/internal/toolset"
)

// gmailScopes is the single OAuth scope set the engine requests: full
// mailbox read/write plus settings (vacation/imap/pop), the union every
// tool needs.
var gmailScopes = []string{
	gmailapi.MailGoogleComScope,
	gmailapi.GmailSettingsBasicScope,
}

var (
	configDir       string
	credentialsFile string
	configFile      string
	rulesFile       string
	version         = "dev"
)

// SetVersion sets the version string used in the CLI and MCP server.
func SetVersion(v string) {
	version = v
}

func newManager() (*auth.Manager, error) {
	return auth.NewManager(configDir, credentialsFile)
}

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "google-mcp",
		Short: "Gmail MCP server: rule-driven mailbox management over the Model Context Protocol",
		Long: `google-mcp runs a single-mailbox Gmail MCP server: message/thread/draft
operations, a persisted rule engine, session history, and phase-gated tool
exposure, all behind one stdio MCP transport.

Setup:
  1. Download OAuth credentials from https://console.cloud.google.com/apis/credentials
  2. Place the file at ~/.config/google-mcp/credentials.json (or use --credentials)
  3. Authenticate: google-mcp auth login
  4. Serve: google-mcp serve`,
	}

	root.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default: $XDG_CONFIG_HOME/google-mcp)")
	root.PersistentFlags().StringVar(&credentialsFile, "credentials", "", "path to Google OAuth credentials.json (default: <config-dir>/credentials.json)")

	root.AddCommand(
		newAuthCmd(),
		newServeCmd(),
	)

	return root
}

// --- auth commands ---

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication for the single configured mailbox",
	}
	cmd.AddCommand(newAuthLoginCmd(), newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate the mailbox via OAuth browser flow",
		Long: `Authenticates the single configured Gmail account and stores the token
under the config directory (~/.config/google-mcp/token.json by default).

Requires credentials.json from Google Cloud Console at the default path
or via --credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager()
			if err != nil {
				return err
			}
			return mgr.Authenticate(cmd.Context(), gmailScopes)
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the mailbox is authenticated",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := newManager()
			if err != nil {
				return err
			}
			if mgr.IsAuthenticated() {
				fmt.Println("authenticated")
				return nil
			}
			fmt.Println("not authenticated; run 'google-mcp auth login'")
			return nil
		},
	}
}

// --- serve command ---

func newServeCmd() *cobra.Command {
	var flags toolFilterFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Gmail MCP server (stdio)",
		Long: `Starts an MCP server over stdio exposing the full email/thread/draft/
rule/settings tool catalogue, gated by the configured phase and policy.

Use --read-only to expose only read-only tools.
Use --enable or --disable for granular tool control.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	addToolFilterFlags(cmd, &flags)
	cmd.Flags().StringVar(&configFile, "config", "", "path to engine config YAML (default: <config-dir>/config.yaml)")
	cmd.Flags().StringVar(&rulesFile, "rules-file", "", "path to persisted rules JSON (default: <config-dir>/rules.json)")
	return cmd
}

func runServe(ctx context.Context, flags toolFilterFlags) error {
	mgr, err := newManager()
	if err != nil {
		return err
	}

	cfgPath := configFile
	if cfgPath == "" {
		cfgPath = mgr.ConfigDir() + "/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(logging.Config{})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	if cfg.MetricsAddr != "" {
		metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer metricsSrv.Close()
	}

	clientOpt, err := mgr.ClientOption(ctx, gmailScopes)
	if err != nil {
		return err
	}
	gsvc, err := gmailapi.NewService(ctx, clientOpt, option.WithScopes(gmailScopes...))
	if err != nil {
		return fmt.Errorf("building gmail service: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{
		ReadTokensPerSecond:  cfg.RateLimitReadTokensPerSecond,
		WriteTokensPerSecond: cfg.RateLimitWriteTokensPerSecond,
		Burst:                cfg.RateLimitBurst,
	})

	gclient := gmailclient.New(gsvc, limiter, gmailclient.Config{
		Timeout: time.Duration(cfg.DefaultTimeoutMS) * time.Millisecond,
		Retry:   ratelimit.DefaultRetryPolicy(),
	}, logger, m)

	executor := batch.New(batch.Config{ChunkSize: cfg.BatchSize}, m)
	ops := gmailops.New(gclient, executor)

	rulesPath := rulesFile
	if rulesPath == "" {
		rulesPath = mgr.ConfigDir() + "/rules.json"
	}
	ruleStore := rules.NewStore(rulesPath)

	sessions := session.New(session.Config{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		TTL:           time.Duration(cfg.SessionTTLHours) * time.Hour,
	}, logger, m)
	defer sessions.Close()

	gate, err := phase.NewGate(cfg.Phases, cfg.CurrentPhase)
	if err != nil {
		return fmt.Errorf("building phase gate: %w", err)
	}

	eng := engine.New(ops, ruleStore, sessions, logger, m)

	dispatcher := dispatch.New(eng.Registry(), gate, sessions, dispatch.Config{
		RequireConfirmationForDestructive: cfg.RequireConfirmationForDestructive,
		DefaultTimeout:                    time.Duration(cfg.DefaultTimeoutMS) * time.Millisecond,
		ApplyRulesTimeout:                 time.Duration(cfg.ApplyRulesTimeoutMS) * time.Millisecond,
	}, logger, m)

	srv := server.NewServer(&mcp.Implementation{
		Name:    "google-mcp-gmail",
		Version: version,
	}, nil)

	server.RegisterAuthStatusTool(srv, mgr)
	toolset.Bind(srv, eng.Registry(), dispatcher, gate)

	if err := srv.ApplyFilter(flags.toToolFilter()); err != nil {
		return err
	}

	logger.Info("starting gmail mcp server", zap.String("version", version))
	return srv.Run(ctx, &mcp.StdioTransport{})
}

// --- tool filter flags ---

type toolFilterFlags struct {
	readOnly bool
	enable   []string
	disable  []string
}

func addToolFilterFlags(cmd *cobra.Command, f *toolFilterFlags) {
	cmd.Flags().BoolVar(&f.readOnly, "read-only", false, "only expose read-only tools (no mutations)")
	cmd.Flags().StringSliceVar(&f.enable, "enable", nil, "whitelist of tool names to expose (comma-separated)")
	cmd.Flags().StringSliceVar(&f.disable, "disable", nil, "blacklist of tool names to hide (comma-separated)")
	cmd.MarkFlagsMutuallyExclusive("enable", "disable")
}

func (f *toolFilterFlags) toToolFilter() server.ToolFilter {
	return server.ToolFilter{
		ReadOnly: f.readOnly,
		Enable:   f.enable,
		Disable:  f.disable,
	}
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
