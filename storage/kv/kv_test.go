package kv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherd-app/shepherd/core"
)

type doc struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func defaultDoc() doc { return doc{Name: "default", Count: -1} }

type failingStore struct{ Store }

func (failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func storesUnderTest(t *testing.T) map[string]Store {
	fs, err := NewFile(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		BackendMemory: NewMemory(),
		BackendFile:   fs,
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			defer func() { _ = store.Close() }()

			_, err := store.Get(ctx, "missing")
			assert.Equal(t, ErrNotFound, errors.Cause(err))

			require.NoError(t, store.Set(ctx, "members", []byte(`[1,2]`)))
			require.NoError(t, store.Set(ctx, "members", []byte(`[3]`)))
			data, err := store.Get(ctx, "members")
			require.NoError(t, err)
			assert.Equal(t, `[3]`, string(data))
		})
	}
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			got, err := Load(ctx, store, "doc", defaultDoc)
			require.NoError(t, err)
			assert.Equal(t, defaultDoc(), got, "absent key falls back to default")

			want := doc{Name: "grace", Count: 2}
			require.NoError(t, Save(ctx, store, "doc", want))
			got, err = Load(ctx, store, "doc", defaultDoc)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			require.NoError(t, store.Set(ctx, "doc", []byte(`{not json`)))
			got, err = Load(ctx, store, "doc", defaultDoc)
			require.NoError(t, err)
			assert.Equal(t, defaultDoc(), got, "corrupt document falls back to default")
		})
	}
}

func TestLoad_backendFailure(t *testing.T) {
	_, err := Load(context.Background(), failingStore{}, "doc", defaultDoc)
	assert.Error(t, err)
}

func TestFile_layout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "students", []byte(`[]`)))
	data, err := os.ReadFile(filepath.Join(dir, "students.json"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary file left behind")

	assert.Error(t, store.Set(context.Background(), "../escape", []byte(`[]`)))
}

func TestOpen(t *testing.T) {
	store, err := Open(core.StorageConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &memory{}, store)

	store, err = Open(core.StorageConfig{Backend: BackendFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &file{}, store)

	_, err = Open(core.StorageConfig{Backend: "cassandra"})
	assert.Error(t, err)
}
