package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
)

// memorySessionRepository 把会话保存在进程内存中，用于未配置 Redis 的单实例部署和测试。
// 保存的是序列化后的字节，读出的会话与调用方互不影响。
type memorySessionRepository struct {
	cache      *cache.Cache
	maxHistory int
}

// NewMemorySessionRepository 创建一个基于 go-cache 的 SessionRepository。
func NewMemorySessionRepository(ttl time.Duration, maxHistory int) SessionRepository {
	return &memorySessionRepository{
		cache:      cache.New(ttl, 10*time.Minute),
		maxHistory: maxHistory,
	}
}

func (r *memorySessionRepository) GetOrCreate(_ context.Context, sessionID string) (*model.ConversationSession, error) {
	if x, found := r.cache.Get(sessionID); found {
		return decodeSession(x.([]byte))
	}
	return model.NewConversationSession(sessionID, time.Now()), nil
}

func (r *memorySessionRepository) Save(_ context.Context, sess *model.ConversationSession) error {
	data, err := encodeSession(sess, r.maxHistory)
	if err != nil {
		return err
	}
	r.cache.Set(sess.ID, data, cache.DefaultExpiration)
	return nil
}

func (r *memorySessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func (r *memorySessionRepository) List(_ context.Context) ([]*model.ConversationSession, error) {
	items := r.cache.Items()
	sessions := make([]*model.ConversationSession, 0, len(items))
	for _, item := range items {
		sess, err := decodeSession(item.Object.([]byte))
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
