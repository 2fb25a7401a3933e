// Package model 包含了应用的数据模型定义。
package model

import "time"

// 对话中的发言角色。
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// DialogueState 描述会话所处的对话阶段，只由置信度分层的结果驱动。
type DialogueState string

const (
	StateFresh                DialogueState = "fresh"
	StateEngaged              DialogueState = "engaged"
	StateClarificationPending DialogueState = "clarification_pending"
	StateEscalated            DialogueState = "escalated"
)

// Turn 是会话历史中的一条发言。
type Turn struct {
	Role       string    `json:"role"`
	Text       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Intent     string    `json:"intent,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
}

// ConversationSession 是单个浏览器会话的对话状态，由外部会话存储持久化。
type ConversationSession struct {
	ID             string        `json:"id"`
	History        []Turn        `json:"conversation"`
	FailedAttempts int           `json:"failed_attempts"`
	LastIntent     string        `json:"last_intent,omitempty"` // 空字符串表示没有已确认的意图
	State          DialogueState `json:"state"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// NewConversationSession 创建处于 Fresh 状态的新会话。
func NewConversationSession(id string, now time.Time) *ConversationSession {
	return &ConversationSession{
		ID:        id,
		History:   []Turn{},
		State:     StateFresh,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendTurn 追加一条发言。
func (s *ConversationSession) AppendTurn(t Turn) {
	s.History = append(s.History, t)
	s.UpdatedAt = t.Timestamp
}

// MarkResolved 记录一次高置信度的解析：清零失败计数并记住意图。
func (s *ConversationSession) MarkResolved(tag string) {
	s.FailedAttempts = 0
	s.LastIntent = tag
	s.State = StateEngaged
}

// MarkClarification 记录一次需要澄清的回合。
func (s *ConversationSession) MarkClarification() {
	s.FailedAttempts++
	s.State = StateClarificationPending
}

// MarkFallback 记录一次低置信度回合。失败次数达到 escalateAfter 时
// 计数归零并返回 true，表示应当转人工。
func (s *ConversationSession) MarkFallback(escalateAfter int) bool {
	s.FailedAttempts++
	if s.FailedAttempts >= escalateAfter {
		s.FailedAttempts = 0
		s.State = StateEscalated
		return true
	}
	return false
}

// Reset 清空所有字段，回到 Fresh 状态。ID 与创建时间保留。
func (s *ConversationSession) Reset(now time.Time) {
	s.History = []Turn{}
	s.FailedAttempts = 0
	s.LastIntent = ""
	s.State = StateFresh
	s.UpdatedAt = now
}
