package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"inkwell/api/internal/app"
	"inkwell/api/internal/archive"
	"inkwell/api/internal/config"
	"inkwell/api/internal/hooks"
	"inkwell/api/internal/media"
	"inkwell/api/internal/search"
	"inkwell/api/internal/session"
	"inkwell/api/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	dataStore := store.NewPostgresStore(db)

	redisStore, err := session.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer redisStore.Close()

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey)
	}
	searchService := search.NewService(meiliClient, pgfts)
	if meiliClient != nil {
		defer meiliClient.Close()
	}

	var archiveService *archive.Service
	if strings.TrimSpace(cfg.ArchiveDir) != "" {
		if err := os.MkdirAll(cfg.ArchiveDir, 0o755); err != nil {
			log.Fatalf("failed to create archive dir: %v", err)
		}
		archiveService = archive.New(cfg.ArchiveDir)
	}

	mediaStorage, err := buildMediaStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("media storage init failed: %v", err)
	}

	registry := hooks.NewRegistry(nil)
	registerSearchIndexing(registry, searchService)

	service := app.New(cfg, dataStore, redisStore, registry, searchService, archiveService, mediaStorage)

	if meiliClient != nil {
		searchService.ReindexAllFromPG(ctx)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Inkwell API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func buildMediaStorage(ctx context.Context, cfg config.Config) (media.Storage, error) {
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		log.Printf("Using MinIO for media storage")
		return media.NewMinioStorage(ctx, media.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	}
	log.Printf("Using local disk for media storage")
	return media.NewDiskStorage(cfg.UploadsDir, cfg.UploadsBaseURL)
}

// registerSearchIndexing keeps the search index in step with post
// mutations. Indexing failures never fail the mutation.
func registerSearchIndexing(registry *hooks.Registry, searchService *search.Service) {
	index := func(ctx context.Context, payload any) {
		item, ok := payload.(store.Post)
		if !ok {
			return
		}
		searchService.IndexPost(search.PostRecord{
			ID:         item.ID,
			Type:       item.Type,
			Title:      item.Title,
			Slug:       item.Slug,
			Excerpt:    item.Excerpt,
			Status:     item.Status,
			Visibility: item.Visibility,
			Locale:     item.Locale,
		})
	}
	registry.AddAction("post.created", 10, index)
	registry.AddAction("post.updated", 10, index)
	registry.AddAction("post.moved", 10, index)
	registry.AddAction("post.deleted", 10, func(ctx context.Context, payload any) {
		item, ok := payload.(store.Post)
		if !ok {
			return
		}
		searchService.DeletePost(item.ID)
	})
}
