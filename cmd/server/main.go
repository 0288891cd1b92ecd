package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"warmpath/internal/builder"
	"warmpath/internal/graph"
	"warmpath/internal/mailstore"
	"warmpath/internal/pathfinder"
	"warmpath/pkg/config"
	"warmpath/pkg/logger"
)

func main() {
	watch := flag.Bool("watch", false, "run the graph builder in the background")
	flag.Parse()

	// Initialize logger
	if err := logger.Init(os.Getenv("ENV")); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)
	finder := pathfinder.New(repo)
	identity := graph.NewIdentity(cfg.MyEmails...)
	if len(identity.Emails) == 0 {
		log.Warn("MY_EMAILS is not set; path endpoints will reject requests")
	}

	router := newRouter(cfg, log, repo, finder, identity)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if *watch {
		g.Go(func() error {
			return runWatcher(gctx, cfg, repo, log)
		})
	}

	// Graceful shutdown on signal or component failure
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
		return
	}
	log.Info("Server exited")
}

// runWatcher polls the mail store and ingests new messages until the
// context is cancelled
func runWatcher(ctx context.Context, cfg *config.Config, repo *graph.Repository, log *zap.Logger) error {
	mail, err := mailstore.Open(cfg.MailStorePath)
	if err != nil {
		return fmt.Errorf("failed to open mail store: %w", err)
	}
	defer mail.Close()

	checkpoint, err := builder.OpenCheckpoint(cfg.StateDBPath)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	defer checkpoint.Close()

	log.Info("Watching mail store",
		zap.String("path", cfg.MailStorePath),
		zap.Duration("interval", cfg.PollInterval),
	)

	runner := builder.NewRunner(mail, builder.New(repo), checkpoint, repo, cfg.BatchSize)
	return runner.RunLoop(ctx, cfg.PollInterval)
}
