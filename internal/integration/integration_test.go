package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"dollyeo/internal/app"
	"dollyeo/internal/domain"
	pgstore "dollyeo/internal/infra/postgres"
	pgmigrations "dollyeo/internal/infra/postgres/migrations"
	infraredis "dollyeo/internal/infra/redis"
	"dollyeo/internal/roulette"

	"github.com/jackc/pgx/v4/pgxpool"
)

func TestSessionEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedGroup(t, ctx, pgURL, sampleGroup())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	picker := roulette.New(&roulette.Config{Seed: 11})
	groups := infraredis.NewGroupRepository(redisClient, pgstore.NewGroupStore(pool), 5*time.Minute)
	records := infraredis.NewRecordStore(redisClient)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute, picker)
	service := app.NewSessionService(sessions, records, groups, nil)

	snapshot, err := service.LoadGroup(ctx, "owner-1", "g1")
	if err != nil {
		t.Fatalf("load group: %v", err)
	}
	if len(snapshot.Participants) != 2 || len(snapshot.Questions) != 2 {
		t.Fatalf("unexpected loaded snapshot %+v", snapshot)
	}

	// Second read should come from the Redis cache without error.
	if _, err := groups.Get(ctx, "owner-1", "g1"); err != nil {
		t.Fatalf("cached get: %v", err)
	}

	if _, _, err := service.Spin(ctx, "owner-1"); err != nil {
		t.Fatalf("spin: %v", err)
	}
	if _, err := service.MarkOutcome(ctx, "owner-1", true); err != nil {
		t.Fatalf("mark outcome: %v", err)
	}
	if _, err := service.Advance(ctx, "owner-1"); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, _, err := service.Spin(ctx, "owner-1"); err != nil {
		t.Fatalf("second spin: %v", err)
	}

	stored, err := records.LoadAll(ctx, "owner-1")
	if err != nil {
		t.Fatalf("load records: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("expected two mirrored records, got %d", len(stored))
	}
	if stored[0].IsCorrect == nil || !*stored[0].IsCorrect {
		t.Fatalf("first record should be marked correct, got %+v", stored[0])
	}

	// The session ends but the mirrored log answers history queries.
	service.End(ctx, "owner-1")
	history, err := service.Records(ctx, "owner-1")
	if err != nil {
		t.Fatalf("records after end: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected history to survive the session, got %d", len(history))
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "dollyeo", "POSTGRES_PASSWORD": "dollyeopass", "POSTGRES_DB": "dollyeodb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://dollyeo:dollyeopass@%s:%s/dollyeodb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedGroup(t *testing.T, ctx context.Context, dsn string, group domain.QuestionGroup) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(map[string]any{
		"questions":    group.Questions,
		"participants": group.Participants,
	})
	if err != nil {
		t.Fatalf("marshal group: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO question_groups (id, owner_id, name, data, created_at) VALUES (?, ?, ?, ?::jsonb, ?)`,
		group.ID, "owner-1", group.Name, string(data), group.CreatedAt); err != nil {
		t.Fatalf("insert group: %v", err)
	}
}

func sampleGroup() domain.QuestionGroup {
	return domain.QuestionGroup{
		ID:   "g1",
		Name: "standup",
		Questions: []domain.Question{
			{ID: "q1", Content: "What went well this week?"},
			{ID: "q2", Content: "What slowed you down?"},
		},
		Participants: []domain.Participant{
			{ID: "p1", Name: "Alice", Order: 0},
			{ID: "p2", Name: "Bob", Order: 1},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
