package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/contentguard/types"
)

func setupStore(t *testing.T) *Store {
	store, err := NewStore(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func unsafeVerdict() *types.OverallVerdict {
	return &types.OverallVerdict{
		OverallSafe:     false,
		RiskLevel:       types.RiskHigh,
		Recommendations: []string{"内容审核未通过，建议修改后重新提交"},
	}
}

func TestStore_WriteAndRecent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	err := store.Write(ctx, Entry{
		RequestID: "req-1",
		HasText:   true,
		Verdict:   unsafeVerdict(),
	})
	require.NoError(t, err)

	records, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "req-1", rec.RequestID)
	assert.True(t, rec.HasText)
	assert.False(t, rec.HasImage)
	assert.False(t, rec.Safe)
	assert.Equal(t, "high", rec.RiskLevel)

	// 判定快照可以还原为完整结构
	var snapshot types.OverallVerdict
	require.NoError(t, json.Unmarshal([]byte(rec.Verdict), &snapshot))
	assert.Equal(t, types.RiskHigh, snapshot.RiskLevel)
}

func TestStore_RecentOrderingAndLimit(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Write(ctx, Entry{
			RequestID: "req",
			Verdict: &types.OverallVerdict{
				OverallSafe: true,
				RiskLevel:   types.RiskLow,
			},
		}))
	}

	records, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	// limit <= 0 回退到默认值
	records, err = store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 5)
}

func TestStore_WriteWithTaskID(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.Write(ctx, Entry{
		RequestID: "req-2",
		TaskID:    "task-abc",
		HasImage:  true,
		Verdict:   unsafeVerdict(),
	}))

	records, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "task-abc", records[0].TaskID)
	assert.True(t, records[0].HasImage)
}
