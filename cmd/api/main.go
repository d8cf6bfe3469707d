package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/linkhealth/internal/application"
	"github.com/bryanwahyu/linkhealth/internal/application/analysis"
	appscans "github.com/bryanwahyu/linkhealth/internal/application/scans"
	"github.com/bryanwahyu/linkhealth/internal/config"
	domlinks "github.com/bryanwahyu/linkhealth/internal/domain/links"
	domain "github.com/bryanwahyu/linkhealth/internal/domain/scans"
	"github.com/bryanwahyu/linkhealth/internal/infra/ai/openai"
	"github.com/bryanwahyu/linkhealth/internal/infra/ai/prompt"
	"github.com/bryanwahyu/linkhealth/internal/infra/archive"
	"github.com/bryanwahyu/linkhealth/internal/infra/crawler"
	mysqlp "github.com/bryanwahyu/linkhealth/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/linkhealth/internal/infra/db/postgres"
	"github.com/bryanwahyu/linkhealth/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/linkhealth/internal/infra/storage"
	"github.com/bryanwahyu/linkhealth/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database (driver dari config)
	var (
		db       *sql.DB
		scanRepo domain.Repository
		linkRepo domlinks.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		scanRepo = postgresp.NewScanRepository(db)
		linkRepo = postgresp.NewLinkRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		scanRepo = mysqlp.NewScanRepository(db)
		linkRepo = mysqlp.NewLinkRepository(db)
	}
	defer db.Close()

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		log.Fatalf("minio init error: %v", err)
	}

	// init AI client; missing key is a configuration error, not a runtime one
	aiClient, err := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	if err != nil {
		log.Fatalf("openai init error: %v", err)
	}
	analyzer := analysis.New(aiClient, prompt.UserPrompt)

	// init crawl + archive collaborators
	checker := crawler.New(crawler.Config{
		UserAgent: cfg.Crawler.UserAgent,
		MaxDepth:  cfg.Crawler.MaxDepth,
	})
	var wayback domain.ArchiveLookup
	if cfg.Archive.Enabled {
		wayback = archive.New(cfg.ArchiveTimeout())
	}

	// init service
	svc := &appscans.Service{
		Repo:      scanRepo,
		Links:     linkRepo,
		Crawler:   checker,
		Analyzer:  analyzer,
		Archive:   wayback,
		Artifacts: store,
		Clock:     application.SystemClock{},
		Pacer:     application.NewPacer(appscans.LinkDelay),
	}

	// init router
	mux := chi.NewRouter()
	mux.Mount("/", httpserver.NewRouter(svc, map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
