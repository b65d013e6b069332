package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/muzaffarq/paygent/internal/agent"
	"github.com/muzaffarq/paygent/internal/bus"
	"github.com/muzaffarq/paygent/internal/config"
	"github.com/muzaffarq/paygent/internal/confirm"
	"github.com/muzaffarq/paygent/internal/faq"
	"github.com/muzaffarq/paygent/internal/gateway"
	"github.com/muzaffarq/paygent/internal/llm"
	"github.com/muzaffarq/paygent/internal/logging"
	"github.com/muzaffarq/paygent/internal/match"
	"github.com/muzaffarq/paygent/internal/payapi"
	"github.com/muzaffarq/paygent/internal/store"
	"github.com/muzaffarq/paygent/internal/transfer"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the paygent server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			log = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Style)
			return runServer(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind address")
	return cmd
}

func runServer(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Event bus: Redis when configured, in-process otherwise.
	var (
		eventBus bus.Bus
		rdb      *redis.Client
	)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		eventBus = bus.NewRedisBus(rdb, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using Redis event bus")
	} else {
		eventBus = bus.NewMemoryBus()
		log.Info().Msg("using in-process event bus")
	}
	defer eventBus.Close()

	// Session credential store.
	var creds store.CredentialStore
	switch cfg.Store.Backend {
	case "redis":
		creds = store.NewRedisStore(rdb)
		log.Info().Msg("using Redis session store")
	case "sqlite":
		sqlStore, err := store.OpenSQLite(cfg.Store.SQLitePath, log)
		if err != nil {
			return fmt.Errorf("opening session store: %w", err)
		}
		creds = sqlStore
		log.Info().Str("path", cfg.Store.SQLitePath).Msg("using SQLite session store")
	default:
		creds = store.NewMemoryStore()
		log.Info().Msg("using in-memory session store")
	}
	defer creds.Close()

	gatewayAPI := payapi.NewClient(cfg.Upstream.PayAPI.BaseURL,
		time.Duration(cfg.Upstream.PayAPI.TimeoutSeconds)*time.Second, log)

	matcher := match.New(cfg.Matcher.Phonetic == nil || *cfg.Matcher.Phonetic)
	waiter := confirm.NewWaiter(eventBus, log)
	orchestrator := transfer.New(creds, gatewayAPI, waiter, matcher, transfer.Options{
		MinScore:         cfg.Matcher.MinScore,
		SelectionTimeout: time.Duration(cfg.Timeouts.SelectionSeconds) * time.Second,
		OTPTimeout:       time.Duration(cfg.Timeouts.OTPSeconds) * time.Second,
	}, log)

	tools := agent.NewToolRegistry()
	tools.Register(agent.NewMakeTransferTool(orchestrator))
	tools.Register(agent.NewListRecipientsTool(creds, gatewayAPI))
	tools.Register(agent.NewListCardsTool(creds, gatewayAPI))
	if cfg.Upstream.FAQ.BaseURL != "" {
		faqClient := faq.NewClient(cfg.Upstream.FAQ.BaseURL, cfg.Upstream.FAQ.Token,
			cfg.Upstream.FAQ.ProjectID, time.Duration(cfg.Upstream.FAQ.TimeoutSeconds)*time.Second, log)
		tools.Register(agent.NewAnswerFAQTool(faqClient))
	}

	var client llm.Client
	switch cfg.LLM.Provider {
	case "mock":
		client = &llm.MockClient{}
		log.Warn().Msg("using mock LLM provider")
	default:
		client = llm.NewGeminiClient(cfg.LLM.APIKey, cfg.LLM.Model)
	}

	runner := agent.NewRunner(agent.RunnerConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		ExtraPrompt: cfg.LLM.ExtraPrompt,
	}, client, tools, log)

	sessionTTL := time.Duration(cfg.Store.TTLSeconds) * time.Second
	server := gateway.NewServer(cfg.Server, runner, creds, sessionTTL, eventBus, log)
	return server.Start(ctx)
}
