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

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"line-companion/handler"
	"line-companion/internal/config"
	"line-companion/internal/integrations/line"
	"line-companion/internal/integrations/openai"
	"line-companion/internal/integrations/paramstore"
	"line-companion/internal/usecase"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx := context.Background()

	// ---- Configuration (read only here) ----
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	if cfg.ParamPrefix != "" {
		if err := loadSecretsFromParamStore(ctx, &cfg); err != nil {
			slog.Error("failed to load secrets from parameter store", "err", err)
			os.Exit(1)
		}
	}
	if err := cfg.ValidateSecrets(); err != nil {
		slog.Error("incomplete configuration", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	parser, err := line.NewWebhookParser(cfg.ChannelSecret)
	if err != nil {
		slog.Error("failed to create webhook parser", "err", err)
		os.Exit(1)
	}
	lineClient, err := line.NewClient(cfg.ChannelAccessToken)
	if err != nil {
		slog.Error("failed to create reply client", "err", err)
		os.Exit(1)
	}
	openaiClient, err := openai.NewClient(cfg.OpenAIAPIKey,
		openai.WithMaxTokens(cfg.MaxCompletionTokens),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.CompletionTimeout}),
	)
	if err != nil {
		slog.Error("failed to create OpenAI client", "err", err)
		os.Exit(1)
	}

	// ---- Service and handler ----
	replySvc, err := usecase.NewReplyService(openaiClient, lineClient,
		cfg.Model, cfg.FallbackModel, cfg.SystemPrompt, cfg.CompletionTimeout)
	if err != nil {
		slog.Error("failed to create reply service", "err", err)
		os.Exit(1)
	}
	h, err := handler.New(parser, replySvc)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	router := mux.NewRouter()
	h.Register(router)

	// The callback may hold the connection for two completion attempts plus
	// the reply send; size the write timeout accordingly.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2*cfg.CompletionTimeout + 15*time.Second,
	}

	go func() {
		slog.Info("listening", "port", cfg.Port, "model", cfg.Model, "fallback_model", cfg.FallbackModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	slog.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "err", err)
	}
}

// loadSecretsFromParamStore overrides the three secrets with values from SSM
// under cfg.ParamPrefix.
func loadSecretsFromParamStore(ctx context.Context, cfg *config.Config) error {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load AWS config: %w", err)
	}
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return err
	}
	secrets, err := paramstore.LoadSecrets(ctx, ssmClient, cfg.ParamPrefix)
	if err != nil {
		return err
	}
	cfg.ChannelAccessToken = secrets.ChannelAccessToken
	cfg.ChannelSecret = secrets.ChannelSecret
	cfg.OpenAIAPIKey = secrets.OpenAIAPIKey
	return nil
}
