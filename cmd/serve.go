package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	httpcontext "github.com/dtroode/chatdemo-server/internal/api/http/context"
	"github.com/dtroode/chatdemo-server/internal/api/http/router"
	httpserver "github.com/dtroode/chatdemo-server/internal/api/http/server"
	"github.com/dtroode/chatdemo-server/internal/captcha"
	"github.com/dtroode/chatdemo-server/internal/completion"
	"github.com/dtroode/chatdemo-server/internal/config"
	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/realtime"
	"github.com/dtroode/chatdemo-server/internal/repository/memory"
	"github.com/dtroode/chatdemo-server/internal/seed"
	"github.com/dtroode/chatdemo-server/internal/server"
	"github.com/dtroode/chatdemo-server/internal/service"
	storagememory "github.com/dtroode/chatdemo-server/internal/storage/memory"
	storageminio "github.com/dtroode/chatdemo-server/internal/storage/minio"
	"github.com/dtroode/chatdemo-server/internal/token"
)

func runServe(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	storage, err := newStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}

	userRepo := memory.NewUserRepository(seed.Users()...)
	groupRepo := memory.NewGroupRepository(seed.Groups()...)
	messageRepo := memory.NewMessageRepository()
	sessionRepo := memory.NewSessionRepository()

	completer, err := newCompleter(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize completer", "error", err)
	}

	hub := realtime.NewHub(logger.Named("realtime"))
	autoReply := service.NewAutoReply(cfg.Demo.AutoReplyContact, completer, cfg.AutoReply.Workers, cfg.AutoReply.QueueSize, logger.Named("autoreply"))
	messageService := service.NewMessages(messageRepo, groupRepo, sessionRepo, hub, autoReply, logger)
	attachments := service.NewAttachments(storage, messageService, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	autoReply.Start(workerCtx, messageService.AppendReply)

	generator := captcha.NewGenerator()
	sessionService := service.NewSession(
		sessionRepo,
		service.NewIdentity(userRepo, cfg.Demo.Password, logger),
		service.NewGroups(groupRepo, logger),
		messageService,
		generator,
		hub,
		logger,
	)

	r := router.New(router.Deps{
		SessionService: sessionService,
		TokenManager:   token.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL),
		ContextManager: httpcontext.NewManager(),
		Renderer:       generator,
		Attachments:    attachments,
		Connections:    hub,
		MaxAttachment:  cfg.Attachment.MaxBytes,
		Logger:         logger,
	})
	httpServer := httpserver.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	hub.CloseAll()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	hub.Wait()
	stopWorkers()
	autoReply.Wait()
	logger.Info("shutdown complete")
	return nil
}

func newStorage(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.Storage, error) {
	if !cfg.Storage.Enabled {
		logger.Info("attachments kept in memory")
		return storagememory.New(), nil
	}

	client, err := storageminio.Dial(ctx, storageminio.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("attachments stored in minio", "endpoint", cfg.Storage.Endpoint, "bucket", cfg.Storage.Bucket)
	return client, nil
}

func newCompleter(ctx context.Context, cfg *config.Config, logger *logger.Logger) (model.Completer, error) {
	if cfg.Gemini.APIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, auto-replies use canned answers")
		return completion.NewStatic(), nil
	}
	gemini, err := completion.NewGemini(ctx, completion.GeminiConfig{
		Endpoint: cfg.Gemini.Endpoint,
		Model:    cfg.Gemini.Model,
		APIKey:   cfg.Gemini.APIKey,
		Timeout:  cfg.Gemini.Timeout,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("auto-replies generated by gemini", "model", cfg.Gemini.Model)
	return gemini, nil
}
