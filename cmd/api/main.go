package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/rfmelo/gestorpme/internal/api/handlers"
	"github.com/rfmelo/gestorpme/internal/api/middleware"
	"github.com/rfmelo/gestorpme/internal/config"
	"github.com/rfmelo/gestorpme/internal/extract"
	"github.com/rfmelo/gestorpme/internal/filestore"
	"github.com/rfmelo/gestorpme/internal/importer"
	"github.com/rfmelo/gestorpme/internal/logger"
	"github.com/rfmelo/gestorpme/internal/pipeline"
	"github.com/rfmelo/gestorpme/internal/store"
	"github.com/rfmelo/gestorpme/internal/store/local"
	"github.com/rfmelo/gestorpme/internal/store/postgres"
)

func main() {
	log := logger.New()
	cfg := config.Load()
	ctx := context.Background()

	// Store: Postgres when DATABASE_URL is set, JSON file otherwise.
	st := openStore(ctx, cfg, log)
	defer st.Close()

	// Blob storage: GCS when a bucket is configured, data dir otherwise.
	blobs := openBlobs(ctx, cfg, log)

	// Generative layer.
	gen, err := extract.NewGeminiGenerator(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao criar cliente do modelo")
	}
	orch := extract.NewOrchestrator(gen, log)

	activity := importer.NewActivityLog()
	exec := importer.NewExecutor(st, activity, log)
	svc := pipeline.NewService(st, blobs, orch, exec, activity, log)

	handler := middleware.Logger(log)(
		middleware.Recovery(log)(
			middleware.RequestID(
				middleware.CORS(
					handlers.New(svc, st, log).Router(),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // generative imports are slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("iniciando servidor da API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("falha ao iniciar servidor")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("encerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("encerramento forçado")
	}
	log.Info().Msg("servidor encerrado")
}

func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) store.Store {
	if cfg.DatabaseURL != "" {
		st, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("falha ao conectar ao banco de dados")
		}
		log.Info().Msg("usando armazenamento PostgreSQL")
		return st
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("falha ao criar diretório de dados")
	}
	st, err := local.Open(filepath.Join(cfg.DataDir, "gestorpme.json"))
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao abrir armazenamento local")
	}
	log.Info().Str("dir", cfg.DataDir).Msg("usando armazenamento local em arquivo JSON")
	return st
}

func openBlobs(ctx context.Context, cfg config.Config, log zerolog.Logger) filestore.Blobs {
	if cfg.GCSBucket != "" {
		blobs, err := filestore.NewGCS(ctx, cfg.GCSBucket, "uploads")
		if err != nil {
			log.Fatal().Err(err).Msg("falha ao conectar ao GCS")
		}
		log.Info().Str("bucket", cfg.GCSBucket).Msg("documentos arquivados no GCS")
		return blobs
	}
	blobs, err := filestore.NewLocalDir(filepath.Join(cfg.DataDir, "files"))
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao criar diretório de documentos")
	}
	return blobs
}
