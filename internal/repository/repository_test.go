package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
)

func TestMemorySessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Hour, 0)

	sess, err := repo.GetOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", sess.ID)
	assert.Equal(t, model.StateFresh, sess.State)
	assert.Empty(t, sess.History)

	now := time.Now()
	sess.AppendTurn(model.Turn{Role: model.RoleUser, Text: "hello", Timestamp: now})
	sess.MarkResolved("greeting")
	require.NoError(t, repo.Save(ctx, sess))

	// 保存之后修改调用方的对象不影响已保存的数据
	sess.LastIntent = "changed"

	got, err := repo.GetOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "greeting", got.LastIntent)
	require.Len(t, got.History, 1)
	assert.Equal(t, "hello", got.History[0].Text)

	other, err := repo.GetOrCreate(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other.History, "sessions are isolated")

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, repo.Delete(ctx, "abc"))
	got, err = repo.GetOrCreate(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, got.History)
}

func TestMemorySessionRepositoryMaxHistory(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySessionRepository(time.Hour, 2)

	sess := model.NewConversationSession("s", time.Now())
	for _, text := range []string{"a", "b", "c"} {
		sess.AppendTurn(model.Turn{Role: model.RoleUser, Text: text, Timestamp: time.Now()})
	}
	require.NoError(t, repo.Save(ctx, sess))
	assert.Len(t, sess.History, 3, "caller's session is not truncated")

	got, err := repo.GetOrCreate(ctx, "s")
	require.NoError(t, err)
	require.Len(t, got.History, 2)
	assert.Equal(t, "b", got.History[0].Text)
	assert.Equal(t, "c", got.History[1].Text)
}

func TestLocalLockerSerializes(t *testing.T) {
	l := NewLocalLocker(time.Second)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(ctx, "same")
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, l.(*localLocker).locks)
}

func TestLocalLockerTimeout(t *testing.T) {
	l := NewLocalLocker(20 * time.Millisecond)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "s1")
	require.NoError(t, err)

	_, err = l.Lock(ctx, "s1")
	require.ErrorIs(t, err, ErrSessionLocked)

	other, err := l.Lock(ctx, "s2")
	require.NoError(t, err, "different sessions do not block each other")
	other()

	unlock()
	unlock() // 重复调用无副作用

	again, err := l.Lock(ctx, "s1")
	require.NoError(t, err)
	again()
}
