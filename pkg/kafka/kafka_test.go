package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/events"
)

// scriptedReader 依次返回预设的结果，用完后阻塞到 ctx 取消。
type scriptedReader struct {
	mu        sync.Mutex
	script    []fetchResult
	fetches   int
	committed []kafka.Message
}

type fetchResult struct {
	msg kafka.Message
	err error
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	r.fetches++
	if len(r.script) > 0 {
		next := r.script[0]
		r.script = r.script[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

type chanSink chan events.TurnEvent

func (s chanSink) Record(_ context.Context, e events.TurnEvent) error {
	s <- e
	return nil
}

func TestConsumeRetriesFetchErrors(t *testing.T) {
	base := fetchRetryBase
	fetchRetryBase = time.Millisecond
	t.Cleanup(func() { fetchRetryBase = base })

	value, err := json.Marshal(events.TurnEvent{SessionID: "s1", Tier: "resolved"})
	require.NoError(t, err)
	r := &scriptedReader{script: []fetchResult{
		{err: errors.New("broker unavailable")},
		{err: errors.New("broker unavailable")},
		{msg: kafka.Message{Offset: 7, Value: value}},
	}}
	sink := make(chanSink, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		consume(ctx, r, sink)
		close(done)
	}()

	select {
	case e := <-sink:
		assert.Equal(t, "s1", e.SessionID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered after fetch errors")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop on cancel")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	require.Len(t, r.committed, 1)
	assert.Equal(t, int64(7), r.committed[0].Offset)
	assert.GreaterOrEqual(t, r.fetches, 3)
}

func TestConsumeCommitsMalformedMessage(t *testing.T) {
	r := &scriptedReader{script: []fetchResult{{msg: kafka.Message{Offset: 3, Value: []byte("{")}}}}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	consume(ctx, r, make(chanSink))

	require.Len(t, r.committed, 1)
	assert.Equal(t, int64(3), r.committed[0].Offset)
}

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, fetchRetryBase, retryDelay(1))
	assert.Equal(t, 2*fetchRetryBase, retryDelay(2))
	assert.Equal(t, fetchRetryMax, retryDelay(100))
}
