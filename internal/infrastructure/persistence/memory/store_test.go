package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/jobcost/internal/domain/costing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCostCode(t *testing.T, code string) *costing.CostCode {
	t.Helper()
	cc, err := costing.NewCostCode(costing.CostCodeSpec{
		Code:     code,
		Name:     "Test " + code,
		Division: "03",
		Type:     costing.CostCodeTypeLabor,
	})
	require.NoError(t, err)
	return cc
}

func TestStore_ExecuteCommits(t *testing.T) {
	store := NewStore()
	repo := NewCostCodeRepository(store)
	ctx := context.Background()
	cc := newCostCode(t, "03-100")

	err := store.Execute(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Save(ctx, cc))

		// visible inside the transaction
		found, err := repo.FindByID(ctx, cc.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		// not yet visible outside
		outside, err := repo.FindByID(context.Background(), cc.ID)
		require.NoError(t, err)
		assert.Nil(t, outside)
		return nil
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, cc.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "03-100", found.Code)
}

func TestStore_ExecuteRollsBack(t *testing.T) {
	store := NewStore()
	repo := NewCostCodeRepository(store)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.Execute(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Save(ctx, newCostCode(t, "03-100")))
		require.NoError(t, repo.Save(ctx, newCostCode(t, "03-200")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_NestedExecuteJoins(t *testing.T) {
	store := NewStore()
	repo := NewCostCodeRepository(store)
	ctx := context.Background()

	err := store.Execute(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Save(ctx, newCostCode(t, "03-100")))
		return store.Execute(ctx, func(ctx context.Context) error {
			count, err := repo.Count(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 1, count)
			require.NoError(t, repo.Save(ctx, newCostCode(t, "03-200")))
			return errors.New("inner failure")
		})
	})
	require.Error(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "inner failure rolls back the whole transaction")
}

func TestStore_ViewIsConsistent(t *testing.T) {
	store := NewStore()
	repo := NewCostCodeRepository(store)
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, newCostCode(t, "03-100")))

	err := store.View(ctx, func(viewCtx context.Context) error {
		require.NoError(t, repo.Save(ctx, newCostCode(t, "03-200")))

		count, err := repo.Count(viewCtx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		assert.ErrorIs(t, repo.Save(viewCtx, newCostCode(t, "03-300")), ErrReadOnly)
		return nil
	})
	require.NoError(t, err)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestStore_RecordsAreCopied(t *testing.T) {
	store := NewStore()
	repo := NewCostCodeRepository(store)
	ctx := context.Background()
	cc := newCostCode(t, "03-100")
	require.NoError(t, repo.Save(ctx, cc))

	cc.Name = "changed after save"
	found, err := repo.FindByID(ctx, cc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test 03-100", found.Name)

	found.Name = "changed after load"
	again, err := repo.FindByID(ctx, cc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test 03-100", again.Name)
}

func TestCollection_PreservesOrder(t *testing.T) {
	c := newCollection[string]()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for i, id := range ids {
		c.put(id, string(rune('a'+i)))
	}
	c.put(ids[0], "A")
	assert.True(t, c.remove(ids[1]))
	assert.False(t, c.remove(ids[1]))

	var got []string
	c.each(func(v string) bool {
		got = append(got, v)
		return true
	})
	assert.Equal(t, []string{"A", "c"}, got)
	assert.Equal(t, 2, c.len())
}
