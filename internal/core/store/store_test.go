package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ambientdeck/ambientdeck/internal/config"
	"github.com/stretchr/testify/require"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLKeepsExistingToken", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?authToken=abc",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=abc", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./ambientdeck.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./ambientdeck.db", dsn)
	})

	t.Run("BarePathCreatesDirectory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")
		cfg := config.StoreConfig{Path: filepath.Join(dir, "deck.db")}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:"+filepath.Join(dir, "deck.db"), dsn)
		require.DirExists(t, dir)
	})

	t.Run("PathMissing", func(t *testing.T) {
		_, err := buildLibsqlDSN(config.StoreConfig{})
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		dsn, err := buildLibsqlDSN(config.StoreConfig{Path: ":memory:"})
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestIsLocalDSN(t *testing.T) {
	require.True(t, isLocalDSN("file:/tmp/deck.db"))
	require.False(t, isLocalDSN(":memory:"))
	require.False(t, isLocalDSN("libsql://example.turso.io"))
}

func TestRateLimitQueryValidate(t *testing.T) {
	require.Error(t, RateLimitQuery{}.Validate())
	require.NoError(t, RateLimitQuery{All: true}.Validate())
	require.NoError(t, RateLimitQuery{Endpoint: "/me/boards"}.Validate())
	require.NoError(t, RateLimitQuery{Prefix: "/boards"}.Validate())

	where, args, err := RateLimitQuery{Prefix: " /boards "}.whereClause()
	require.NoError(t, err)
	require.Equal(t, "WHERE endpoint LIKE ?", where)
	require.Equal(t, []any{"/boards%"}, args)
}

func TestSettingKeys(t *testing.T) {
	require.True(t, ValidSettingKey(SettingBoardToken))
	require.True(t, ValidSettingKey(SettingBoardID))
	require.False(t, ValidSettingKey("theme"))

	key, err := normalizeSettingKey(" Board.ID ")
	require.NoError(t, err)
	require.Equal(t, SettingBoardID, key)

	_, err = normalizeSettingKey("theme")
	require.ErrorIs(t, err, ErrUnknownSetting)
}

func TestNilStore(t *testing.T) {
	var s *Store
	ctx := context.Background()

	require.NoError(t, s.Close())
	require.Empty(t, s.Driver())
	require.ErrorIs(t, s.Migrate(ctx), ErrNotInitialized)
	_, _, err := s.GetSetting(ctx, SettingBoardID)
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.GetRateLimit(ctx, "/me/boards")
	require.ErrorIs(t, err, ErrNotInitialized)
	_, _, err = s.GetCachedPins(ctx, "b1")
	require.ErrorIs(t, err, ErrNotInitialized)
}
