package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/application/service"
	"github.com/benline/priority-gateway/internal/cache"
	"github.com/benline/priority-gateway/internal/config"
	"github.com/benline/priority-gateway/internal/graph"
	"github.com/benline/priority-gateway/internal/httpapi"
	"github.com/benline/priority-gateway/internal/observability"
	"github.com/benline/priority-gateway/internal/priority"
	"github.com/benline/priority-gateway/internal/r2"
	"github.com/benline/priority-gateway/internal/snapshot"
	"github.com/benline/priority-gateway/internal/whatsapp"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	metrics := observability.NewInmem(1000)

	orders := priority.NewClient(cfg.Priority, logger)

	var tokens service.TokenSource
	var mailer service.Mailer
	if cfg.GraphConfigured() {
		tokens = graph.NewTokenCache(cfg.Graph, logger)
		mailer = graph.NewMailer(cfg.Graph, logger)
	} else {
		logger.Warn("graph mail not configured, approval emails disabled")
		tokens = unavailableTokens{}
		mailer = unavailableMailer{}
	}

	var texts service.TextSender
	if cfg.WhatsAppConfigured() {
		texts = whatsapp.NewSender(cfg.WhatsApp, logger)
	}

	var store *r2.Store
	if cfg.R2Configured() {
		store, err = r2.NewStore(context.Background(), cfg.R2, logger)
		if err != nil {
			logger.Fatal("object store init failed", zap.Error(err))
		}
	} else {
		logger.Warn("object store not configured, /r2 endpoints disabled")
	}

	orderCache, err := cache.New(cfg.CacheCap)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}

	var remote snapshot.Remote
	if store != nil {
		remote = store
	}
	snapshots := snapshot.New(cfg.SnapshotPath, remote, logger)

	svc := service.NewService(
		orders, tokens, mailer, texts, snapshots, orderCache,
		cfg.ApprovalStatus, cfg.FetchStatuses,
		logger, metrics,
	)

	var objectStore httpapi.ObjectStore
	if store != nil {
		objectStore = store
	}
	server := httpapi.New(svc, objectStore, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("listen failed", zap.Error(err))
	}
	logger.Info("server stopped")
}

// unavailableTokens / unavailableMailer keep the orchestrator running when
// no Graph registration is configured: every notification reports the
// degraded "email not sent" outcome instead of crashing the update path.
type unavailableTokens struct{}

func (unavailableTokens) Token(context.Context) (string, error) {
	return "", errTokensOff
}
func (unavailableTokens) Invalidate() {}

type unavailableMailer struct{}

func (unavailableMailer) SendApprovalEmail(context.Context, string, string, string, string, string) error {
	return errTokensOff
}

var errTokensOff = errors.New("graph mail not configured")
