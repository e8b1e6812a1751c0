package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/commitcoach/commitcoach/internal/pkg/ai"
	"github.com/commitcoach/commitcoach/internal/pkg/config"
	apperrors "github.com/commitcoach/commitcoach/internal/pkg/errors"
	"github.com/commitcoach/commitcoach/internal/pkg/security"
	"github.com/commitcoach/commitcoach/internal/proxy"
	"github.com/commitcoach/commitcoach/internal/proxy/ratelimit"
)

// ProxyFlags holds the flags for the proxy service.
type ProxyFlags struct {
	Addr string
}

// NewProxyCmd creates the root command of the proxy service.
func NewProxyCmd(version, commitHash, date string) *cobra.Command {
	flags := &ProxyFlags{}

	rootCmd := &cobra.Command{
		Use:   "commitcoach-proxy",
		Short: "HTTP proxy between the CommitCoach CLI and a language model",
		Long: `commitcoach-proxy accepts staged diffs from the CommitCoach CLI, asks the
configured upstream (OpenAI or Ollama) for a commit message and returns it.
Upstream credentials stay on the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProxy(cmd, flags)
		},
	}

	rootCmd.SetVersionTemplate(`commitcoach-proxy {{.Version}}
Commit: ` + commitHash + `
Built:  ` + date + "\n")

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ./commitcoach-proxy.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.Addr, "addr", "", "Listen address (default :8080, or :$PORT)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the proxy server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProxy(cmd, flags)
		},
	})

	return rootCmd
}

// loadProxyConfig resolves and validates the proxy configuration.
func loadProxyConfig(cmd *cobra.Command, flags *ProxyFlags) (*config.ProxyConfig, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	mgr := config.NewProxyManager(configPath)
	if flags.Addr != "" {
		mgr.SetOverride("server.addr", flags.Addr)
	}
	if verbose {
		mgr.SetOverride("log.level", "debug")
	}

	cfg, err := mgr.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runProxy(cmd *cobra.Command, flags *ProxyFlags) error {
	cfg, err := loadProxyConfig(cmd, flags)
	if err != nil {
		return err
	}

	apperrors.SetJSON(strings.EqualFold(cfg.Log.Format, "json"))
	apperrors.SetLevel(apperrors.ParseLogLevel(cfg.Log.Level))
	logger := apperrors.Zerolog()

	if err := security.ValidateAPIKeyFormat(cfg.Upstream.Provider, cfg.Upstream.APIKey); err != nil {
		logger.Warn().Err(err).Msg("upstream API key looks unusual")
	}

	completer, err := ai.NewCompleter(&cfg.Upstream)
	if err != nil {
		return apperrors.NewInvalidConfigError(fmt.Sprintf("failed to create upstream: %v", err))
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		l, closeFn, err := ratelimit.New(cfg.RateLimit, cfg.Redis)
		if err != nil {
			return apperrors.NewInvalidConfigError(fmt.Sprintf("failed to create rate limiter: %v", err))
		}
		defer func() { _ = closeFn() }()
		limiter = l
	}

	logger.Info().
		Str("provider", completer.Name()).
		Str("model", cfg.Upstream.Model).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Str("rate_limit_backend", cfg.RateLimit.Backend).
		Int("rate_limit_max", cfg.RateLimit.Max).
		Dur("rate_limit_window", cfg.RateLimit.Window).
		Msg("starting proxy")

	gin.SetMode(gin.ReleaseMode)
	router := proxy.BuildRouter(proxy.RouterDeps{
		Version:        cmd.Root().Version,
		Completer:      completer,
		Limiter:        limiter,
		CORSOrigins:    cfg.Server.CORSOrigins,
		TrustedProxies: cfg.Server.TrustedProxies,
		Logger:         logger,
	})

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return proxy.NewServer(cfg.Server, router, logger).Run(ctx)
}
