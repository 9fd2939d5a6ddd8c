package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreCreateThenUpdate(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	raw, token, err := st.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw)
	assert.Empty(t, token)

	outcome, token, err := st.Write(ctx, []byte(`{"v":1}`), "", "create")
	require.NoError(t, err)
	assert.Equal(t, WriteCreated, outcome)
	require.NotEmpty(t, token)

	outcome, token2, err := st.Write(ctx, []byte(`{"v":2}`), token, "update")
	require.NoError(t, err)
	assert.Equal(t, WriteUpdated, outcome)
	assert.NotEqual(t, token, token2)

	raw, token3, err := st.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), raw)
	assert.Equal(t, token2, token3)
}

func TestMemoryStoreRejectsStaleToken(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, stale, err := st.Write(ctx, []byte(`{"v":1}`), "", "create")
	require.NoError(t, err)

	_, _, err = st.Write(ctx, []byte(`{"v":2}`), stale, "first update")
	require.NoError(t, err)

	outcome, _, err := st.Write(ctx, []byte(`{"v":3}`), stale, "late update")
	require.NoError(t, err)
	assert.Equal(t, WriteConflict, outcome)

	raw, _, err := st.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), raw, "conflicting write must not change state")
}

func TestMemoryStoreRejectsDoubleCreate(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, _, err := st.Write(ctx, []byte(`{}`), "", "create")
	require.NoError(t, err)

	outcome, _, err := st.Write(ctx, []byte(`{}`), "", "create again")
	require.NoError(t, err)
	assert.Equal(t, WriteConflict, outcome)
}

func TestMemoryStoreAdmitsExactlyOneWinner(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()

	_, token, err := st.Write(ctx, []byte(`{"v":0}`), "", "seed")
	require.NoError(t, err)

	const writers = 16
	outcomes := make([]WriteOutcome, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, _, err := st.Write(ctx, []byte(`{"v":1}`), token, "race")
			assert.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, out := range outcomes {
		if out == WriteUpdated {
			wins++
		}
	}
	assert.Equal(t, 1, wins, "exactly one racing writer may win")
}
