package service

import (
	"context"
	"time"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/repository"
)

// ConversationService 定义了会话历史相关的业务逻辑。
type ConversationService interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.Turn, error)
	Reset(ctx context.Context, sessionID string) error
	ListAll(ctx context.Context) ([]*model.ConversationSession, error)
}

type conversationService struct {
	repo   repository.SessionRepository
	locker repository.SessionLocker
}

// NewConversationService 创建一个新的 ConversationService。
func NewConversationService(repo repository.SessionRepository, locker repository.SessionLocker) ConversationService {
	return &conversationService{repo: repo, locker: locker}
}

// GetHistory 返回会话的完整发言历史。
func (s *conversationService) GetHistory(ctx context.Context, sessionID string) ([]model.Turn, error) {
	sess, err := s.repo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History, nil
}

// Reset 清空会话，回到初始状态。
func (s *conversationService) Reset(ctx context.Context, sessionID string) error {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.repo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return err
	}
	sess.Reset(time.Now())
	return s.repo.Save(ctx, sess)
}

// ListAll 返回全部会话，供管理端查看。
func (s *conversationService) ListAll(ctx context.Context) ([]*model.ConversationSession, error) {
	return s.repo.List(ctx)
}
