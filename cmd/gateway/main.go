package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/Naude555/watson/internal/gateway/adapters/chatclient"
	"github.com/Naude555/watson/internal/gateway/app"
	"github.com/Naude555/watson/internal/gateway/domain"
	filerepo "github.com/Naude555/watson/internal/gateway/repository/file"
	httptransport "github.com/Naude555/watson/internal/gateway/transport/http"
	"github.com/Naude555/watson/internal/platform/config"
	"github.com/Naude555/watson/internal/platform/docstore"
	"github.com/Naude555/watson/internal/platform/logger"
)

const serviceName = "gateway"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Gateway starting...", "port", cfg.ServerPort)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Repositories over the persisted JSON documents.
	messageRepo := filerepo.NewMessageRepositoryFile(docstore.New(cfg.MessagesFile), cfg.MessagesMax, appLogger)
	contactRepo := filerepo.NewContactRepositoryFile(docstore.New(cfg.ContactsFile), appLogger)
	automationRepo := filerepo.NewAutomationRepositoryFile(docstore.New(cfg.AutomationsFile), appLogger)
	lastSendRepo := filerepo.NewLastSendRepositoryFile(docstore.New(cfg.LastSendFile), appLogger)
	jobRepo := filerepo.NewJobRepositoryFile(docstore.New(cfg.JobsFile), appLogger)

	// Chat network client. The mock client stands in until a real
	// protocol adapter is wired; the rest of the gateway only sees the
	// chatclient.Client interface.
	client := chatclient.NewMockClient(appLogger)
	client.SetState(chatclient.StateOpen)

	messages := app.NewMessageService(messageRepo, app.NewMessageCache(cfg.MessagesMemoryLimit), appLogger)
	if err := messages.Hydrate(ctx); err != nil {
		appLogger.Error("Failed to hydrate message cache", "error", err)
		os.Exit(1)
	}

	queue := app.NewDeliveryQueue(cfg.MessagesMax, jobRepo, appLogger)
	if restored, err := queue.Restore(ctx); err != nil {
		appLogger.Error("Failed to restore pending jobs", "error", err)
		os.Exit(1)
	} else if restored > 0 {
		appLogger.Info("Restored pending delivery jobs", "count", restored)
	}

	gate := app.NewRateGate(app.PacingConfig{
		BaseDelayMS:    cfg.BaseDelayMS,
		JitterMS:       cfg.JitterMS,
		PerJIDGapMS:    cfg.PerJIDGapMS,
		GlobalMinGapMS: cfg.GlobalMinGapMS,
	}, lastSendRepo, appLogger)
	retry := app.RetryPolicy{
		MaxRetries: cfg.MaxRetries,
		Initial:    time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
	}
	worker := app.NewDeliveryWorker(queue, client, gate, messages, retry, appLogger)

	groups := app.NewGroupDirectory(client, appLogger)
	resolver := app.NewResolver(contactRepo, groups)
	sender := app.NewSendService(resolver, queue, messages, client, appLogger)

	seed := domain.DefaultAutomationConfig(cfg.WebhookURL, cfg.WebhookSecret, cfg.GroupPrefix, cfg.QuietHoursTZ)
	automations, err := app.NewAutomationService(ctx, automationRepo, seed, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize automation config", "error", err)
		os.Exit(1)
	}

	signer := app.NewMediaSigner(cfg.MediaSigningSecret, time.Duration(cfg.MediaURLTTLSeconds)*time.Second)
	if cfg.MediaSigningSecret == "" {
		appLogger.Warn("MEDIA_SIGNING_SECRET not set; signed media links will not verify")
	}

	replier := app.NewAutoReplier(app.AutoReplyConfig{
		Enabled:     cfg.AutoReplyEnabled,
		Scope:       cfg.AutoReplyScope,
		MatchType:   cfg.AutoReplyMatchType,
		MatchValue:  cfg.AutoReplyMatchValue,
		ReplyText:   cfg.AutoReplyText,
		GroupPrefix: cfg.GroupPrefix,
		Cooldown:    time.Duration(cfg.AutoReplyCooldownMS) * time.Millisecond,
	}, sender, appLogger)

	forwarder := app.NewForwarder(automations, signer, appLogger)
	ruleEngine := app.NewRuleEngine(automations, appLogger)
	inbound := app.NewInboundProcessor(messages, ruleEngine, forwarder, replier, appLogger)
	client.SetInboundHandler(func(msg chatclient.InboundMessage) {
		inbound.Handle(ctx, msg)
	})

	if _, err := groups.Refresh(ctx); err != nil {
		appLogger.Warn("Initial group cache refresh failed", "error", err)
	}

	cleaner := app.NewMediaCleaner(
		cfg.UploadDir,
		time.Duration(cfg.MediaTTLDays)*24*time.Hour,
		time.Duration(cfg.MediaCleanupEveryHours)*time.Hour,
		appLogger,
	)

	validate := validator.New()
	router := httptransport.NewRouter(httptransport.RouterDeps{
		APIKey:     cfg.APIKey,
		AdminKey:   cfg.AdminKey,
		Send:       httptransport.NewSendHandler(sender, signer, cfg.UploadDir, appLogger, validate),
		Messages:   httptransport.NewMessageHandler(messages, appLogger),
		Automation: httptransport.NewAutomationHandler(automations, appLogger),
		Contacts:   httptransport.NewContactHandler(contactRepo, groups, appLogger, validate),
		Media:      httptransport.NewMediaHandler(signer, cfg.UploadDir, appLogger),
		Health: httptransport.NewHealthHandler(client, queue, groups, httptransport.HealthInfo{
			AutoReplyEnabled: cfg.AutoReplyEnabled,
			AutoReplyScope:   cfg.AutoReplyScope,
			MessagesFile:     cfg.MessagesFile,
			MessagesMax:      cfg.MessagesMax,
			MessagesMemLimit: cfg.MessagesMemoryLimit,
		}),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		err := worker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		err := cleaner.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Gateway terminated", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Gateway stopped")
}
