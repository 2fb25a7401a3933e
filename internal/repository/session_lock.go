package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// ErrSessionLocked 表示在超时时间内没能拿到会话锁。
var ErrSessionLocked = errors.New("session is busy")

// SessionLocker 保证同一会话的回合串行执行：读取 -> 处理 -> 保存。
type SessionLocker interface {
	// Lock 阻塞直到获得锁或超时。返回的 unlock 必须调用且只调用一次。
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

const lockKeyPrefix = "chat:lock:"

// 只删除自己持有的锁。
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	redisClient *redis.Client
	ttl         time.Duration
	timeout     time.Duration
	retry       time.Duration
}

// NewRedisLocker 创建基于 SET NX PX 的分布式会话锁。ttl 防止持锁进程崩溃后死锁。
func NewRedisLocker(redisClient *redis.Client, ttl, timeout time.Duration) SessionLocker {
	return &redisLocker{redisClient: redisClient, ttl: ttl, timeout: timeout, retry: 25 * time.Millisecond}
}

func (l *redisLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := lockKeyPrefix + sessionID
	token := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()
	for {
		ok, err := l.redisClient.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			return func() {
				// 使用独立的 context，请求已结束也要释放锁
				_ = unlockScript.Run(context.Background(), l.redisClient, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ErrSessionLocked
		case <-ticker.C:
		}
	}
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

type localLocker struct {
	mu      sync.Mutex
	locks   map[string]*keyLock
	timeout time.Duration
}

// NewLocalLocker 创建进程内的按会话加锁器，用于单实例部署。
func NewLocalLocker(timeout time.Duration) SessionLocker {
	return &localLocker{locks: make(map[string]*keyLock), timeout: timeout}
}

func (l *localLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[sessionID]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[sessionID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	select {
	case kl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-kl.ch
				l.release(sessionID, kl)
			})
		}, nil
	case <-ctx.Done():
		l.release(sessionID, kl)
		return nil, ErrSessionLocked
	}
}

func (l *localLocker) release(sessionID string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, sessionID)
	}
}
