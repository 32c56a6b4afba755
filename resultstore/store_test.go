package resultstore

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g1o/QuasiRecomb/hmmlib"
)

func testResult(id string, k int, llh float64) *hmmlib.OptimalResult {
	return &hmmlib.OptimalResult{
		RunID:       id,
		NRead:       3,
		NState:      k,
		NPos:        2,
		NSymbol:     2,
		Reads:       []*hmmlib.Read{hmmlib.NewRead([]byte{0, 1}, 0, 3)},
		Pi:          []float64{1},
		Rho:         []float64{1},
		Mu:          []float64{0.25, 0.75, 0.5, 0.5},
		LogLike:     llh,
		BIC:         hmmlib.BIC(llh, 4, 3),
		FreeParams:  4,
		Epsilon:     1e-3,
		Seed:        7,
		Iterations:  12,
		Termination: hmmlib.PreBreak,
	}
}

func checkRoundTrip(t *testing.T, store Store) {
	ctx := context.Background()
	require.NoError(t, store.Init(ctx))
	t.Cleanup(func() {
		_ = store.Close()
	})

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	r2 := testResult("b", 2, -10)
	r1 := testResult("a", 1, -12.5)
	r3 := testResult("c", 1, math.NaN())
	for _, or := range []*hmmlib.OptimalResult{r2, r1, r3} {
		require.NoError(t, store.Save(ctx, or))
	}

	got, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, r1.Mu, got.Mu)
	assert.Equal(t, r1.LogLike, got.LogLike)
	assert.Equal(t, r1.Termination, got.Termination)
	assert.Equal(t, 3, got.Reads[0].Count)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"a", "c", "b"}, []string{list[0].RunID, list[1].RunID, list[2].RunID})
	assert.Equal(t, "pre-break", list[0].Termination)
	assert.True(t, math.IsNaN(list[1].LogLike))

	// Saving again replaces the result
	r1.LogLike = -11
	require.NoError(t, store.Save(ctx, r1))
	got, _, err = store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, -11.0, got.LogLike)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	checkRoundTrip(t, NewMemoryStore())
}

func TestGobDirStoreRoundTrip(t *testing.T) {
	checkRoundTrip(t, NewGobDirStore(filepath.Join(t.TempDir(), "results")))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	checkRoundTrip(t, NewSQLiteStore(filepath.Join(t.TempDir(), "results.db")))
}

func TestSQLiteStoreNotInitialized(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "results.db"))
	if err := store.Save(context.Background(), testResult("a", 1, -1)); err == nil {
		t.Fatal("expected error from uninitialized store")
	}
}

func TestNewStore(t *testing.T) {
	for _, kind := range []string{"", "memory", "gobdir", "sqlite"} {
		store, err := NewStore(kind, t.TempDir())
		require.NoError(t, err, kind)
		assert.NotNil(t, store, kind)
	}

	_, err := NewStore("unknown", "")
	assert.Error(t, err)
}
