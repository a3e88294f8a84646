package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/entitygraph/pkg/errors"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	mem := NewMemoryStore()
	mem.now = c.now

	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	fs.now = c.now

	return map[string]Store{"memory": mem, "file": fs}
}

func TestNewDataset(t *testing.T) {
	ds, err := NewDataset("  crops ", `[{"id":"A"}]`, "")
	require.NoError(t, err)
	assert.Equal(t, "crops", ds.Name)
	assert.Len(t, ds.ID, 36)
	assert.NoError(t, errors.ValidateDatasetID(ds.ID))

	other, err := NewDataset("crops", "[]", "")
	require.NoError(t, err)
	assert.NotEqual(t, ds.ID, other.ID)
}

func TestNewDatasetValidation(t *testing.T) {
	tests := []struct {
		name string
		data string
		cfg  string
		code errors.Code
	}{
		{"malformed data", `[{"id":`, "", errors.ErrCodeInvalidData},
		{"malformed configurations", "[]", `[{`, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDataset("x", tt.data, tt.cfg)
			assert.Equal(t, tt.code, errors.GetCode(err))
		})
	}

	_, err := NewDataset(strings.Repeat("n", 201), "[]", "")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))

	// Empty data is allowed; the demo dataset fills in.
	_, err = NewDataset("empty", "", "")
	assert.NoError(t, err)
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ds, err := NewDataset("first", `[{"id":"A"}]`, `[{"label":"FDO"}]`)
			require.NoError(t, err)
			require.NoError(t, st.Save(ctx, ds))
			assert.False(t, ds.CreatedAt.IsZero())
			assert.Equal(t, ds.CreatedAt, ds.UpdatedAt)

			got, err := st.Get(ctx, ds.ID)
			require.NoError(t, err)
			assert.Equal(t, ds.Data, got.Data)
			assert.Equal(t, ds.Configurations, got.Configurations)
			assert.True(t, ds.CreatedAt.Equal(got.CreatedAt))

			// Replacing keeps CreatedAt.
			update := &Dataset{ID: ds.ID, Name: "renamed", Data: "[]"}
			require.NoError(t, st.Save(ctx, update))
			assert.True(t, update.CreatedAt.Equal(ds.CreatedAt))
			assert.True(t, update.UpdatedAt.After(ds.UpdatedAt))

			got, err = st.Get(ctx, ds.ID)
			require.NoError(t, err)
			assert.Equal(t, "renamed", got.Name)

			require.NoError(t, st.Delete(ctx, ds.ID))
			_, err = st.Get(ctx, ds.ID)
			assert.True(t, errors.Is(err, errors.ErrCodeDatasetNotFound))
			assert.True(t, errors.IsNotFound(err))
		})
	}
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	for name, st := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := st.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, empty)

			a, _ := NewDataset("a", "[]", "")
			b, _ := NewDataset("b", "[]", "")
			require.NoError(t, st.Save(ctx, a))
			require.NoError(t, st.Save(ctx, b))

			list, err := st.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "b", list[0].Name)
			assert.Equal(t, "a", list[1].Name)

			require.NoError(t, st.Save(ctx, a))
			list, _ = st.List(ctx)
			assert.Equal(t, "a", list[0].Name)
		})
	}
}

func TestStoreMissing(t *testing.T) {
	ctx := context.Background()
	for name, st := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Get(ctx, "nope")
			assert.True(t, errors.Is(err, errors.ErrCodeDatasetNotFound))
			err = st.Delete(ctx, "nope")
			assert.True(t, errors.Is(err, errors.ErrCodeDatasetNotFound))
		})
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	for name, st := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			err := st.Save(ctx, &Dataset{ID: "../escape", Data: "[]"})
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidDataset))
			err = st.Save(ctx, &Dataset{ID: "ok", Data: "{"})
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidData))
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, st.Path())

	ds, _ := NewDataset("x", "[]", "")
	require.NoError(t, st.Save(context.Background(), ds))
	_, err = os.Stat(filepath.Join(dir, ds.ID+".json"))
	assert.NoError(t, err)

	// Stray files are skipped.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600))
	list, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryStoreCopies(t *testing.T) {
	st := NewMemoryStore()
	ds, _ := NewDataset("x", "[]", "")
	require.NoError(t, st.Save(context.Background(), ds))

	got, _ := st.Get(context.Background(), ds.ID)
	got.Name = "changed"
	again, _ := st.Get(context.Background(), ds.ID)
	assert.Equal(t, "x", again.Name)
}
