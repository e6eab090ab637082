package persistence

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnhub/content-subscriptions/internal/config"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/app?sslmode=disable", migrateURL("postgres://u:p@db:5432/app?sslmode=disable"))
	assert.Equal(t, "pgx5://u:p@db/app", migrateURL("postgresql://u:p@db/app"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestNewPostgresRequiresDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestPoolConfigAppliesBounds(t *testing.T) {
	cfg, err := poolConfig(config.PostgresConfig{
		DSN:            "postgres://u:p@db:5432/app",
		MaxConns:       8,
		MinConns:       2,
		ConnMaxIdleSec: 30,
		ConnMaxLifeSec: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, int32(8), cfg.MaxConns)
	assert.Equal(t, int32(2), cfg.MinConns)
	assert.Equal(t, 30*time.Second, cfg.MaxConnIdleTime)
	assert.Equal(t, 5*time.Minute, cfg.MaxConnLifetime)

	cfg, err = poolConfig(config.PostgresConfig{DSN: "postgres://u:p@db:5432/app", MaxConns: 2, MinConns: 5})
	require.NoError(t, err)
	assert.Equal(t, int32(0), cfg.MinConns, "min above max is ignored")

	_, err = poolConfig(config.PostgresConfig{DSN: "postgres://u:p@db:notaport/app"})
	assert.Error(t, err)
}

func TestRedisIncrWithExpire(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()

	ctx := context.Background()
	for want := int64(1); want <= 3; want++ {
		got, err := r.IncrWithExpire(ctx, "ratelimit:test", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:test"))

	mr.FastForward(time.Minute + time.Second)
	got, err := r.IncrWithExpire(ctx, "ratelimit:test", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
	require.NoError(t, r.Ping(ctx))
}

func TestRedisIncrWithExpireRepairsMissingTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	defer r.Close()

	// A counter left without a TTL by an interrupted earlier write.
	require.NoError(t, mr.Set("ratelimit:/api/auth/login:10.0.0.1", "1"))

	ctx := context.Background()
	var got int64
	for i := 0; i < 30; i++ {
		var err error
		got, err = r.IncrWithExpire(ctx, "ratelimit:/api/auth/login:10.0.0.1", time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(31), got)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:/api/auth/login:10.0.0.1"))

	mr.FastForward(24 * time.Hour)
	assert.False(t, mr.Exists("ratelimit:/api/auth/login:10.0.0.1"))

	got, err := r.IncrWithExpire(ctx, "ratelimit:/api/auth/login:10.0.0.1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
