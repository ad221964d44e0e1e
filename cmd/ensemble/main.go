package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nidhogg/ensemble/internal/api"
	"github.com/nidhogg/ensemble/internal/character"
	"github.com/nidhogg/ensemble/internal/config"
	"github.com/nidhogg/ensemble/internal/dialogue"
	"github.com/nidhogg/ensemble/internal/graph"
	"github.com/nidhogg/ensemble/internal/interaction"
	"github.com/nidhogg/ensemble/internal/notify"
	"github.com/nidhogg/ensemble/internal/recall"
	"github.com/nidhogg/ensemble/internal/relationship"
	"github.com/nidhogg/ensemble/internal/sentiment"
	"github.com/nidhogg/ensemble/internal/store"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Ensemble...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/ensemble.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Persistence. Postgres is the source of truth; without it the
	// service runs on a volatile in-memory store.
	var st store.Store
	var pg *store.Postgres
	if cfg.Database.Postgres.DSN != "" {
		p, pgErr := store.NewPostgres(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := p.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pg = p
			st = p
		}
	}
	if st == nil {
		st = store.NewMemory()
	}

	// Relationship topology projection.
	var projector *graph.Projector
	if cfg.Database.Neo4j.URI != "" {
		gp, gErr := graph.NewProjector(cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
		if gErr != nil {
			logger.Warn("Neo4j unavailable, running without graph projection", zap.Error(gErr))
		} else {
			projector = gp
		}
	}

	// Event notifiers.
	var notifiers []notify.Notifier
	if cfg.Database.Redis.URL != "" {
		rn, rErr := notify.NewRedisNotifier(cfg.Database.Redis.URL, logger)
		if rErr != nil {
			logger.Warn("Redis unavailable, events will not be streamed", zap.Error(rErr))
		} else {
			notifiers = append(notifiers, rn)
			defer rn.Close()
		}
	}
	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.BotToken != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notify.Slack.BotToken, cfg.Notify.Slack.Channel, logger))
	}
	if cfg.Notify.Discord.Enabled && cfg.Notify.Discord.BotToken != "" {
		dn, dErr := notify.NewDiscordNotifier(cfg.Notify.Discord.BotToken, cfg.Notify.Discord.Channel, logger)
		if dErr != nil {
			logger.Warn("Discord notifier unavailable", zap.Error(dErr))
		} else {
			notifiers = append(notifiers, dn)
		}
	}
	var notifier notify.Notifier = notify.Nop{}
	if len(notifiers) > 0 {
		notifier = notify.NewMulti(logger, notifiers...)
	}

	// Semantic interaction memory.
	var memories *recall.Index
	if cfg.Database.Qdrant.Host != "" && cfg.Embedding.Endpoint != "" {
		embedder := recall.NewHTTPEmbedder(recall.EmbedConfig{
			Endpoint:  cfg.Embedding.Endpoint,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
		})
		idx, qErr := recall.NewIndex(recall.QdrantConfig{
			Host: cfg.Database.Qdrant.Host,
			Port: cfg.Database.Qdrant.Port,
		}, embedder, 3, logger)
		if qErr != nil {
			logger.Warn("Qdrant unavailable, running without semantic recall", zap.Error(qErr))
		} else {
			memories = idx
			defer idx.Close()
		}
	}

	// Sentiment: external scorer when configured, lexicon otherwise.
	var scorer sentiment.Scorer
	if cfg.Sentiment.Endpoint != "" {
		scorer = sentiment.NewHTTPScorer(cfg.Sentiment.Endpoint, time.Duration(cfg.Sentiment.TimeoutMS)*time.Millisecond)
	} else {
		scorer = sentiment.NewLexicon()
		logger.Info("No sentiment endpoint configured, using built-in lexicon")
	}

	// Dialogue: chat model when configured, templates otherwise.
	var generator dialogue.Generator
	if cfg.Dialogue.Model != "" {
		generator = dialogue.NewOpenAIGenerator(dialogue.OpenAIConfig{
			Endpoint: cfg.Dialogue.Endpoint,
			APIKey:   cfg.Dialogue.APIKey,
			Model:    cfg.Dialogue.Model,
			Timeout:  time.Duration(cfg.Dialogue.TimeoutMS) * time.Millisecond,
		}, logger)
	} else {
		logger.Info("No dialogue model configured, using templates only")
	}

	engine := character.NewEmotionEngine(cfg.Tuning.EmotionTuning(), logger)
	ledger := relationship.NewLedger(cfg.Tuning.LedgerTuning(), logger)
	processor := interaction.NewProcessor(st, scorer, generator, notifier, projector, memories,
		engine, ledger, cfg.Tuning.ProcessorConfig(), logger)

	handler := api.NewHandler(st, processor, projector, logger)

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("HTTP server listening", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if projector != nil {
		_ = projector.Close(context.Background())
	}
	if pg != nil {
		pg.Close()
	}
	logger.Info("Bye")
}
