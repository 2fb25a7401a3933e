package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/catalog"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/dialogue"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/repository"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/classifier"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/events"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/nlp"
)

// scriptedPredictor 依次返回预设的结果，用完后重复最后一个。
type scriptedPredictor struct {
	mu    sync.Mutex
	preds []classifier.Prediction
	calls int
}

func (p *scriptedPredictor) Predict([]float32) (classifier.Prediction, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	i := p.calls
	if i >= len(p.preds) {
		i = len(p.preds) - 1
	}
	p.calls++
	return p.preds[i], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TurnEvent
}

func (r *recordingPublisher) Publish(_ context.Context, e events.TurnEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func newTestEngine(t *testing.T, p dialogue.Predictor) *dialogue.Engine {
	t.Helper()
	intents, err := catalog.ParseIntents([]byte(`{"intents":[
		{"tag":"greeting","responses":["Hello!"]},
		{"tag":"caravan","responses":["We build caravans."]}
	]}`))
	require.NoError(t, err)
	gallery, err := catalog.NewGallery([]catalog.Category{
		{Name: "caravan", DisplayName: "Custom Caravan", Keywords: []string{"caravan"}, Images: []string{"c1.jpg", "c2.jpg"}},
	}, map[string]string{"caravan": "caravan"}, intents.Tags())
	require.NoError(t, err)
	replies := catalog.NewQuickReplies(nil, []string{"Our services"}, []string{"How do I contact you?"})
	rnd := dialogue.NewRand(1)
	router := dialogue.NewRouter(intents, replies, dialogue.NewFormatter("", gallery.MediaTags()), dialogue.DefaultThresholds(), rnd, "")
	vocab, err := nlp.NewVocabulary([]string{"hello", "caravan"})
	require.NoError(t, err)
	return dialogue.NewEngine(vocab, p, router, dialogue.NewGalleryDetector(gallery, rnd, 3), replies)
}

type chatFixture struct {
	svc       ChatService
	conv      ConversationService
	repo      repository.SessionRepository
	publisher *recordingPublisher
	predictor *scriptedPredictor
}

func newChatFixture(t *testing.T, preds ...classifier.Prediction) *chatFixture {
	t.Helper()
	p := &scriptedPredictor{preds: preds}
	repo := repository.NewMemorySessionRepository(time.Hour, 0)
	locker := repository.NewLocalLocker(time.Second)
	pub := &recordingPublisher{}
	return &chatFixture{
		svc:       NewChatService(newTestEngine(t, p), repo, locker, pub),
		conv:      NewConversationService(repo, locker),
		repo:      repo,
		publisher: pub,
		predictor: p,
	}
}

func TestChatServicePersistsSession(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, classifier.Prediction{Tag: "greeting", Confidence: 0.95})

	res, err := f.svc.ProcessTurn(ctx, "s1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", res.Text)

	history, err := f.conv.GetHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleUser, history[0].Role)
	assert.Equal(t, model.RoleBot, history[1].Role)

	sess, err := f.repo.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "greeting", sess.LastIntent)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "resolved", f.publisher.events[0].Tier)
	assert.Equal(t, "s1", f.publisher.events[0].SessionID)
}

func TestChatServiceEscalationAcrossTurns(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, classifier.Prediction{Tag: "greeting", Confidence: 0.2})

	var last model.TurnResult
	for i := 0; i < 3; i++ {
		var err error
		last, err = f.svc.ProcessTurn(ctx, "s1", "asdf qwerty")
		require.NoError(t, err)
	}
	assert.Equal(t, model.TierEscalation, last.Tier)

	sess, err := f.repo.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 0, sess.FailedAttempts)
	assert.Equal(t, model.StateEscalated, sess.State)
}

func TestChatServiceGalleryUsesStoredLastIntent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, classifier.Prediction{Tag: "caravan", Confidence: 0.9})

	_, err := f.svc.ProcessTurn(ctx, "s1", "tell me about caravans")
	require.NoError(t, err)

	res, err := f.svc.ProcessTurn(ctx, "s1", "can I see some photos?")
	require.NoError(t, err)
	assert.Equal(t, model.TierGallery, res.Tier)
	assert.Equal(t, dialogue.GalleryTag, res.Tag)
	assert.Equal(t, 1, f.predictor.calls)

	history, err := f.conv.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, history, 2, "gallery turns are not recorded in history")
	assert.Len(t, f.publisher.events, 2)
}

func TestChatServiceEmptyMessage(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, classifier.Prediction{Tag: "greeting", Confidence: 0.9})

	res, err := f.svc.ProcessTurn(ctx, "s1", "  ")
	require.NoError(t, err)
	assert.Equal(t, dialogue.EmptyMessageText, res.Text)
	assert.Zero(t, f.predictor.calls)
	assert.Empty(t, f.publisher.events)
}

func TestChatServiceConcurrentTurnsSameSession(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, classifier.Prediction{Tag: "greeting", Confidence: 0.9})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ProcessTurn(ctx, "s1", "hello")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	history, err := f.conv.GetHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, history, 20, "no lost updates")
}

// slowPublisher 在第一次发布时通知 started，然后阻塞 delay。
type slowPublisher struct {
	delay   time.Duration
	started chan struct{}
	once    sync.Once
}

func (p *slowPublisher) Publish(context.Context, events.TurnEvent) error {
	p.once.Do(func() { close(p.started) })
	time.Sleep(p.delay)
	return nil
}

func TestChatServicePublishDoesNotHoldSessionLock(t *testing.T) {
	ctx := context.Background()
	p := &scriptedPredictor{preds: []classifier.Prediction{{Tag: "greeting", Confidence: 0.9}}}
	repo := repository.NewMemorySessionRepository(time.Hour, 0)
	pub := &slowPublisher{delay: time.Second, started: make(chan struct{})}
	svc := NewChatService(newTestEngine(t, p), repo, repository.NewLocalLocker(200*time.Millisecond), pub)

	first := make(chan error, 1)
	go func() {
		_, err := svc.ProcessTurn(ctx, "s1", "hello")
		first <- err
	}()
	<-pub.started

	start := time.Now()
	_, err := svc.ProcessTurn(ctx, "s1", "hello")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.NoError(t, <-first)

	sess, err := repo.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, sess.History, 4)
}

func TestConversationReset(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t, classifier.Prediction{Tag: "greeting", Confidence: 0.9})

	_, err := f.svc.ProcessTurn(ctx, "s1", "hello")
	require.NoError(t, err)
	_, err = f.svc.ProcessTurn(ctx, "s2", "hello")
	require.NoError(t, err)

	require.NoError(t, f.conv.Reset(ctx, "s1"))

	sess, err := f.repo.GetOrCreate(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, sess.History)
	assert.Empty(t, sess.LastIntent)
	assert.Equal(t, model.StateFresh, sess.State)

	other, err := f.conv.GetHistory(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, other, 2)

	all, err := f.conv.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

type fakeTurnEventRepo struct {
	created []*model.TurnEvent
	since   time.Time
	err     error
}

func (r *fakeTurnEventRepo) Create(_ context.Context, e *model.TurnEvent) error {
	r.created = append(r.created, e)
	return r.err
}

func (r *fakeTurnEventRepo) CountByTag(_ context.Context, since time.Time) ([]model.TagCount, error) {
	r.since = since
	return []model.TagCount{{Tag: "greeting", Count: 3}}, nil
}

func (r *fakeTurnEventRepo) CountByTier(_ context.Context, since time.Time) ([]model.TierCount, error) {
	return []model.TierCount{{Tier: "resolved", Count: 3}}, nil
}

type fakeIndex struct {
	docs []model.UnresolvedUtterance
}

func (i *fakeIndex) Index(_ context.Context, doc model.UnresolvedUtterance) error {
	i.docs = append(i.docs, doc)
	return nil
}

func (i *fakeIndex) Search(_ context.Context, _ string, size int) ([]model.UnresolvedUtterance, error) {
	if len(i.docs) > size {
		return i.docs[:size], nil
	}
	return i.docs, nil
}

func TestAnalyticsRecord(t *testing.T) {
	ctx := context.Background()
	repo := &fakeTurnEventRepo{}
	idx := &fakeIndex{}
	svc := NewAnalyticsService(repo, idx)

	require.NoError(t, svc.Record(ctx, events.TurnEvent{SessionID: "s1", Tier: "resolved", Tag: "greeting", Confidence: 0.9}))
	require.NoError(t, svc.Record(ctx, events.TurnEvent{SessionID: "s1", Tier: "fallback", PredictedTag: "caravan", Confidence: 0.3, Utterance: "blorp"}))

	assert.Len(t, repo.created, 2)
	require.Len(t, idx.docs, 1, "only unresolved turns are indexed")
	assert.Equal(t, "blorp", idx.docs[0].Utterance)

	repo.err = errors.New("db down")
	err := svc.Record(ctx, events.TurnEvent{SessionID: "s1", Tier: "clarification"})
	require.Error(t, err)
	assert.Len(t, idx.docs, 2, "index still written when the database fails")
}

func TestAnalyticsReport(t *testing.T) {
	ctx := context.Background()
	repo := &fakeTurnEventRepo{}
	svc := NewAnalyticsService(repo, nil).(*analyticsService)
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	report, err := svc.Report(ctx, "weekly")
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -7), repo.since)
	require.NotNil(t, report.Since)
	assert.Equal(t, []model.TagCount{{Tag: "greeting", Count: 3}}, report.Tags)

	report, err = svc.Report(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "weekly", report.Period)

	_, err = svc.Report(ctx, "monthly")
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -30), repo.since)

	report, err = svc.Report(ctx, "all")
	require.NoError(t, err)
	assert.Nil(t, report.Since)
	assert.True(t, repo.since.IsZero())

	_, err = svc.Report(ctx, "hourly")
	require.ErrorIs(t, err, ErrInvalidPeriod)

	_, err = svc.SearchUnresolved(ctx, "x", 10)
	require.ErrorIs(t, err, ErrAnalyticsDisabled)

	_, err = NewAnalyticsService(nil, nil).Report(ctx, "all")
	require.ErrorIs(t, err, ErrAnalyticsDisabled)
}
