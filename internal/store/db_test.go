package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_Memory(t *testing.T) {
	db := newTestDB(t)

	assert.True(t, db.IsMemory())
	assert.Equal(t, MemoryPath, db.Path())
	require.NoError(t, db.Conn().Ping())
}

func TestOpen_DiskCreatesParentDirectory(t *testing.T) {
	// Given: a path whose parent directory does not exist
	dbPath := filepath.Join(t.TempDir(), ".symdex", "index.db")

	// When: opening it
	db, err := Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// Then: the file exists and the handle is disk-backed
	assert.False(t, db.IsMemory())
	assert.Equal(t, dbPath, db.Path())
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_MemoryIsSingleSharedDatabase(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	// Given: a row written through one call
	require.NoError(t, db.Settings().Set(ctx, "k", "v"))

	// Then: later calls see it, since the pool never opens a second connection
	got, err := db.GetSetting(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v", got.Value)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	ctx := context.Background()

	db, err := Open(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Settings().Set(ctx, SettingHasIndexedBuiltin, "1"))
	require.NoError(t, db.Close())

	db, err = Open(dbPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	got, err := db.GetSetting(ctx, SettingHasIndexedBuiltin)
	require.NoError(t, err)
	assert.True(t, got.Truthy())
}

func TestSettings_GetMissing(t *testing.T) {
	db := newTestDB(t)

	// When: reading a setting that was never written
	got, err := db.GetSetting(context.Background(), SettingHasIndexedBuiltin)

	// Then: nil is returned without error
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, got.Truthy())
}

func TestSettings_SchemaVersionSeeded(t *testing.T) {
	db := newTestDB(t)

	got, err := db.GetSetting(context.Background(), SettingSchemaVersion)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1", got.Value)
}

func TestSetting_Truthy(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			s := &Setting{Value: tt.value}
			assert.Equal(t, tt.want, s.Truthy())
		})
	}
}

func TestQuickCheck_HealthyDatabase(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.QuickCheck(context.Background()))
}

func TestSettings_SetUpserts(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.Settings().Set(ctx, SettingHasIndexedBuiltin, "0"))
	require.NoError(t, db.Settings().Set(ctx, SettingHasIndexedBuiltin, "1"))

	got, err := db.GetSetting(ctx, SettingHasIndexedBuiltin)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1", got.Value)
}
