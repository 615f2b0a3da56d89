package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DevRickLin/feishu-nightwatch/internal/api"
	"github.com/DevRickLin/feishu-nightwatch/internal/biz/domain"
	"github.com/DevRickLin/feishu-nightwatch/internal/conf"
	"github.com/DevRickLin/feishu-nightwatch/internal/data"
	"github.com/DevRickLin/feishu-nightwatch/internal/infra/feishu"
	"github.com/DevRickLin/feishu-nightwatch/internal/pkg/logger"
	"github.com/DevRickLin/feishu-nightwatch/internal/server"
	"github.com/DevRickLin/feishu-nightwatch/internal/service"
	"github.com/DevRickLin/feishu-nightwatch/internal/telemetry"
	"github.com/joho/godotenv"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load .env file
	envErr := godotenv.Load()

	logger.Init(logger.FromEnv())
	log := logger.Named("main")
	if envErr != nil {
		log.Debug().Msg("no .env file found, using environment variables")
	}

	// Load configuration
	cfg, err := conf.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	logConfig(log, cfg)

	telemetry.Init()

	// Initialize clients
	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret, cfg.Debug)

	// Initialize repository layer
	repos, err := data.NewRepositories(feishuClient, cfg.MaxMessageRunes, cfg.Journal.DBPath, cfg.Location)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create repositories")
	}
	repos.Jobs.Start()

	// Initialize service layer
	texts := cfg.Policy.Messages
	mode := domain.NewModeEvaluator(cfg.ToQuietPolicy(), domain.SystemClock{})
	svc := service.NewNightwatchService(service.NightwatchConfig{
		Mode:        mode,
		Messages:    repos.Message,
		Journal:     repos.Journal,
		Jobs:        repos.Jobs,
		Texts:       texts.Notices(),
		TestMode:    !cfg.IsProduction(),
		TickTimeout: cfg.TickTimeout,
	})
	commands := service.NewCommandService(svc, repos.Message, texts, cfg.Policy.Users.Authorized, version)

	// Initialize HTTP API server for operators and nightwatch-mcp
	apiServer := api.NewServer(svc, cfg.API.Port)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Error().Err(err).Msg("API server error")
		}
	}()

	srv := server.NewFeishuServer(feishuClient, svc, commands)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		log.Info().Msg("shutting down")
		srv.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		svc.Stop()
		repos.Jobs.Stop(shutdownCtx)
		if err := apiServer.Stop(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("API server shutdown")
		}
		if err := repos.Journal.Close(); err != nil {
			log.Warn().Err(err).Msg("journal close")
		}
		cancel()
		os.Exit(0)
	}()

	log.Info().Str("version", version).Str("mode", cfg.Mode).Msg("starting Feishu nightwatch")
	if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server error")
	}
	select {}
}

// logConfig dumps the effective configuration, secrets excluded
func logConfig(log *logger.Logger, cfg *conf.Config) {
	p := cfg.Policy
	log.Info().
		Str("mode", cfg.Mode).
		Str("timezone", cfg.Location.String()).
		Str("chat_id", p.ChatID).
		Int("night_begin_hour", p.Night.BeginHour).
		Int("night_end_hour", p.Night.EndHour).
		Strs("night_topics", p.Night.Topics).
		Ints("vacation_weekdays", p.Vacation.Weekdays).
		Interface("vacation_dates", p.Vacation.Dates).
		Strs("vacation_topics", p.Vacation.Topics).
		Int("authorized_users", len(p.Users.Authorized)).
		Int("excluded_users", len(p.Users.Excluded)).
		Int("api_port", cfg.API.Port).
		Str("journal", cfg.Journal.DBPath).
		Int("max_message_runes", cfg.MaxMessageRunes).
		Dur("tick_timeout", cfg.TickTimeout).
		Msg("configuration loaded")
}
