// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
)

const sessionKeyPrefix = "chat:session:"

// SessionRepository 定义了会话状态的持久化操作。
type SessionRepository interface {
	// GetOrCreate 返回已有会话；不存在时返回一个尚未保存的新会话。
	GetOrCreate(ctx context.Context, sessionID string) (*model.ConversationSession, error)
	Save(ctx context.Context, sess *model.ConversationSession) error
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]*model.ConversationSession, error)
}

type redisSessionRepository struct {
	redisClient *redis.Client
	ttl         time.Duration
	maxHistory  int
}

// NewRedisSessionRepository 创建一个基于 Redis 的 SessionRepository。
// maxHistory <= 0 表示不截断历史。
func NewRedisSessionRepository(redisClient *redis.Client, ttl time.Duration, maxHistory int) SessionRepository {
	return &redisSessionRepository{redisClient: redisClient, ttl: ttl, maxHistory: maxHistory}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// GetOrCreate 从 Redis 读取会话。
func (r *redisSessionRepository) GetOrCreate(ctx context.Context, sessionID string) (*model.ConversationSession, error) {
	data, err := r.redisClient.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return model.NewConversationSession(sessionID, time.Now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return decodeSession(data)
}

// Save 把会话写回 Redis，并刷新过期时间。
func (r *redisSessionRepository) Save(ctx context.Context, sess *model.ConversationSession) error {
	data, err := encodeSession(sess, r.maxHistory)
	if err != nil {
		return err
	}
	if err := r.redisClient.Set(ctx, sessionKey(sess.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

// Delete 删除会话。
func (r *redisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.redisClient.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List 通过 SCAN 遍历全部会话。遍历期间过期的 key 会被跳过。
func (r *redisSessionRepository) List(ctx context.Context) ([]*model.ConversationSession, error) {
	var sessions []*model.ConversationSession
	iter := r.redisClient.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.redisClient.Get(ctx, key).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get session %s: %w", strings.TrimPrefix(key, sessionKeyPrefix), err)
		}
		sess, err := decodeSession(data)
		if err != nil {
			continue
		}
		sessions = append(sessions, sess)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return sessions, nil
}

func encodeSession(sess *model.ConversationSession, maxHistory int) ([]byte, error) {
	cp := *sess
	if maxHistory > 0 && len(cp.History) > maxHistory {
		cp.History = cp.History[len(cp.History)-maxHistory:]
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

func decodeSession(data []byte) (*model.ConversationSession, error) {
	var sess model.ConversationSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.History == nil {
		sess.History = []model.Turn{}
	}
	if sess.State == "" {
		sess.State = model.StateFresh
	}
	return &sess, nil
}
