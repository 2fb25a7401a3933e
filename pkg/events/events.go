// Package events 定义了发送到 Kafka 的对话回合事件。
package events

import "time"

// TurnEvent 描述一次经过分类的对话回合，供统计分析使用。
type TurnEvent struct {
	SessionID    string    `json:"session_id"`
	Utterance    string    `json:"utterance"`
	Tier         string    `json:"tier"`
	Tag          string    `json:"tag,omitempty"`
	PredictedTag string    `json:"predicted_tag,omitempty"`
	Confidence   float64   `json:"confidence"`
	Timestamp    time.Time `json:"timestamp"`
}

// Unresolved 判断该回合是否没能给出确定的回答。
func (e TurnEvent) Unresolved() bool {
	switch e.Tier {
	case "clarification", "fallback", "escalation":
		return true
	}
	return false
}
