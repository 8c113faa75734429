package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"dollyeo/internal/app"
	"dollyeo/internal/config"
	"dollyeo/internal/infra/memory"
	pgstore "dollyeo/internal/infra/postgres"
	redisstore "dollyeo/internal/infra/redis"
	"dollyeo/internal/roulette"
	transport "dollyeo/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the picker server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	picker := roulette.New(nil)

	var sessions app.SessionRepository
	if redisClient != nil {
		sessions = redisstore.NewSessionStore(redisClient, redisTTL, picker)
	} else {
		sessions = memory.NewSessionStore(picker)
	}

	var records app.RecordStore
	if redisClient != nil {
		records = redisstore.NewRecordStore(redisClient)
	} else {
		records = memory.NewRecordStore()
	}

	var groupBacking app.GroupStore
	switch {
	case pool != nil:
		groupBacking = pgstore.NewGroupStore(pool)
	case redisClient != nil:
		groupBacking = redisstore.NewGroupStore(redisClient)
	default:
		groupBacking = memory.NewGroupStore()
	}

	groupsTTL := config.TTLDuration(cfg.Groups.TTL, 10*time.Minute)
	var groups app.GroupStore
	if redisClient != nil {
		groups = redisstore.NewGroupRepository(redisClient, groupBacking, groupsTTL)
	} else {
		groups = memory.NewGroupRepository(groupBacking, groupsTTL)
	}

	catalog := &app.Catalog{
		Questions:    memory.NewQuestionCatalog(),
		Participants: memory.NewParticipantCatalog(),
	}
	if pool != nil {
		catalog = &app.Catalog{
			Questions:    pgstore.NewQuestionCatalog(pool),
			Participants: pgstore.NewParticipantCatalog(pool),
		}
	}

	service := app.NewSessionService(sessions, records, groups, catalog)

	wsHandler := transport.NewWSHandler(service, picker)
	wsHandler.SpinBase = config.TTLDuration(cfg.Spin.Base, transport.DefaultSpinBase)
	wsHandler.SpinVariance = config.TTLDuration(cfg.Spin.Variance, transport.DefaultSpinVariance)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting dollyeo on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
