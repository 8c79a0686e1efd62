package percentile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistogram(t *testing.T) {
	h := &Histogram{}
	h[10] = 2
	h[50] = 5
	h[90] = 3

	assert.Equal(t, int64(10), h.Total())
	assert.Equal(t, int64(0), h.Below(10))
	assert.Equal(t, int64(2), h.Below(11))
	assert.Equal(t, int64(7), h.Below(90))
	assert.Equal(t, int64(10), h.Below(150), "scores above the range clamp to 100")
	assert.InDelta(t, 70.0, h.Percentile(90), 1e-9)
	assert.InDelta(t, 0.0, (&Histogram{}).Percentile(50), 1e-9)
}

func TestNormalizeCategory(t *testing.T) {
	assert.Equal(t, "cheese", NormalizeCategory("  Cheese "))
	assert.Equal(t, DefaultCategory, NormalizeCategory(""))
	assert.Equal(t, 0, ClampScore(-3))
	assert.Equal(t, 100, ClampScore(101))
}

// storeFactories returns the backends that can run without external services.
func storeFactories(t *testing.T) map[string]func() Store {
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"sqlite": func() Store {
			tmpDir, err := os.MkdirTemp("", "percentile-test-*")
			require.NoError(t, err)
			t.Cleanup(func() { os.RemoveAll(tmpDir) })

			store, err := NewSQLiteStore(filepath.Join(tmpDir, "nested", "scores.db"))
			require.NoError(t, err)
			return store
		},
	}
}

func TestStores(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			h, err := store.Histogram(ctx, "snack")
			require.NoError(t, err)
			assert.Equal(t, int64(0), h.Total())

			require.NoError(t, store.Add(ctx, "Snack", 40, 1))
			require.NoError(t, store.Add(ctx, "snack", 40, 2))
			require.NoError(t, store.Add(ctx, "snack", 120, 1))
			require.NoError(t, store.Add(ctx, "", 55, 1))

			h, err = store.Histogram(ctx, "SNACK")
			require.NoError(t, err)
			assert.Equal(t, int64(3), h[40])
			assert.Equal(t, int64(1), h[100])
			assert.Equal(t, int64(4), h.Total())

			categories, err := store.Categories(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"other", "snack"}, categories)
		})
	}
}

func TestSQLiteStore_Persists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "percentile-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)
	dbPath := filepath.Join(tmpDir, "scores.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	assert.Equal(t, dbPath, store.Path())
	require.NoError(t, store.Add(ctx, "yogurt", 72, 4))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	h, err := reopened.Histogram(ctx, "yogurt")
	require.NoError(t, err)
	assert.Equal(t, int64(4), h[72])
}

func TestExportImportJSON(t *testing.T) {
	ctx := context.Background()
	source := NewMemoryStore()
	require.NoError(t, source.Add(ctx, "beverage", 20, 3))
	require.NoError(t, source.Add(ctx, "beverage", 80, 1))
	require.NoError(t, source.Add(ctx, "cheese", 36, 2))

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(ctx, source, &buf))
	assert.Contains(t, buf.String(), `"version": "1.0"`)

	target := NewMemoryStore()
	require.NoError(t, target.Add(ctx, "cheese", 36, 1))
	imported, err := ImportJSON(ctx, target, &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(6), imported)

	h, err := target.Histogram(ctx, "cheese")
	require.NoError(t, err)
	assert.Equal(t, int64(3), h[36], "import adds to existing counts")

	h, err = target.Histogram(ctx, "beverage")
	require.NoError(t, err)
	assert.Equal(t, int64(4), h.Total())
}

func TestImportJSON_InvalidInput(t *testing.T) {
	_, err := ImportJSON(context.Background(), NewMemoryStore(), bytes.NewBufferString("{not json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode JSON")
}
