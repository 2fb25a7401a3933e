// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/dialogue"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/repository"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/events"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

// ChatService 处理一次用户发言。
type ChatService interface {
	ProcessTurn(ctx context.Context, sessionID, utterance string) (model.TurnResult, error)
}

type chatService struct {
	engine    *dialogue.Engine
	repo      repository.SessionRepository
	locker    repository.SessionLocker
	publisher TurnEventPublisher
}

// NewChatService 创建一个新的 ChatService。
func NewChatService(engine *dialogue.Engine, repo repository.SessionRepository, locker repository.SessionLocker, publisher TurnEventPublisher) ChatService {
	return &chatService{engine: engine, repo: repo, locker: locker, publisher: publisher}
}

// ProcessTurn 在会话锁内完成 读取 -> 处理 -> 保存，保证同一会话的回合按顺序生效。
// 回合事件在释放锁之后发布，发布耗时不会阻塞同一会话的下一条消息。
func (s *chatService) ProcessTurn(ctx context.Context, sessionID, utterance string) (model.TurnResult, error) {
	res, err := s.applyTurn(ctx, sessionID, utterance)
	if err != nil || res.Tier == model.TierEmpty {
		return res, err
	}

	event := events.TurnEvent{
		SessionID:    sessionID,
		Utterance:    utterance,
		Tier:         string(res.Tier),
		Tag:          res.Tag,
		PredictedTag: res.PredictedTag,
		Confidence:   res.Confidence,
		Timestamp:    time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		log.Error("failed to publish turn event", err)
	}
	return res, nil
}

func (s *chatService) applyTurn(ctx context.Context, sessionID, utterance string) (model.TurnResult, error) {
	unlock, err := s.locker.Lock(ctx, sessionID)
	if err != nil {
		return model.TurnResult{}, err
	}
	defer unlock()

	sess, err := s.repo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return model.TurnResult{}, fmt.Errorf("failed to load session: %w", err)
	}

	res := s.engine.ProcessTurn(utterance, sess)

	switch res.Tier {
	case model.TierEmpty, model.TierGallery:
		// 空消息与图库回合不修改会话
	default:
		if err := s.repo.Save(ctx, sess); err != nil {
			return model.TurnResult{}, fmt.Errorf("failed to save session: %w", err)
		}
	}
	return res, nil
}
