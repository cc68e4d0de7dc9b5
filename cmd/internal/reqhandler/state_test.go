package reqhandler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partner-m/assist-go/cmd/internal/cache"
)

func newMemStateStore() *StateStore {
	// Пустой redis_url дает выключенный кэш, стор работает в памяти.
	return NewStateStore(cache.New(""))
}

func TestStateStore_DialogContext(t *testing.T) {
	ctx := context.Background()
	store := newMemStateStore()

	t.Run("сохранение и чтение", func(t *testing.T) {
		dc := DialogContext{
			Stage: "clarify",
			Query: "молния серая",
			OrgID: 42,
			PendingItems: []Item{
				{Raw: "молния серая 5 шт", QueryCore: "молния серая", Qty: 5, Unit: "шт"},
			},
		}
		require.NoError(t, store.SaveDialogContext(ctx, "chat-1", dc))

		loaded, ok := store.LoadDialogContext(ctx, "chat-1")
		require.True(t, ok)
		assert.Equal(t, dc, loaded)
	})

	t.Run("неизвестный чат", func(t *testing.T) {
		_, ok := store.LoadDialogContext(ctx, "chat-nope")
		assert.False(t, ok)
	})

	t.Run("сброс контекста", func(t *testing.T) {
		require.NoError(t, store.SaveDialogContext(ctx, "chat-2", DialogContext{Stage: "clarify"}))
		store.ClearDialogContext(ctx, "chat-2")

		_, ok := store.LoadDialogContext(ctx, "chat-2")
		assert.False(t, ok)
	})

	t.Run("просроченная запись считается отсутствующей", func(t *testing.T) {
		require.NoError(t, store.SaveDialogContext(ctx, "chat-3", DialogContext{Stage: "clarify"}))

		store.mu.Lock()
		key := dialogKey("chat-3")
		entry := store.mem[key]
		entry.expiresAt = time.Now().Add(-time.Second)
		store.mem[key] = entry
		store.mu.Unlock()

		_, ok := store.LoadDialogContext(ctx, "chat-3")
		assert.False(t, ok)
	})
}

func TestStateStore_Candidates(t *testing.T) {
	ctx := context.Background()
	store := newMemStateStore()

	refs := []CandidateRef{
		{ProductID: 7, Title: "Спанбонд белый", Score: 0.91},
		{ProductID: 9, Title: "Спанбонд черный", Score: 0.76},
	}
	require.NoError(t, store.SaveCandidates(ctx, "chat-1", "msg-10", refs))

	t.Run("кандидаты восстанавливаются по сообщению", func(t *testing.T) {
		loaded, ok := store.LoadCandidates(ctx, "chat-1", "msg-10")
		require.True(t, ok)
		assert.Equal(t, refs, loaded)
	})

	t.Run("чужое сообщение — протухшая кнопка", func(t *testing.T) {
		_, ok := store.LoadCandidates(ctx, "chat-1", "msg-11")
		assert.False(t, ok)
	})

	t.Run("кандидаты не перетирают контекст диалога", func(t *testing.T) {
		require.NoError(t, store.SaveDialogContext(ctx, "chat-1", DialogContext{Stage: "clarify"}))

		loaded, ok := store.LoadCandidates(ctx, "chat-1", "msg-10")
		require.True(t, ok)
		assert.Len(t, loaded, 2)
	})
}
