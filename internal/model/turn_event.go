package model

import "time"

// TurnEvent 对应 turn_events 表，每个分类回合一行，用于统计分析。
type TurnEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SessionID    string    `gorm:"type:varchar(64);index;not null" json:"sessionId"`
	Tier         string    `gorm:"type:varchar(32);index;not null" json:"tier"`
	Tag          string    `gorm:"type:varchar(64)" json:"tag"`
	PredictedTag string    `gorm:"type:varchar(64);index" json:"predictedTag"`
	Confidence   float64   `gorm:"not null" json:"confidence"`
	Utterance    string    `gorm:"type:text" json:"utterance"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (TurnEvent) TableName() string {
	return "turn_events"
}

// TagCount 是按意图聚合后的计数。
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// TierCount 是按应答路径聚合后的计数。
type TierCount struct {
	Tier  string `json:"tier"`
	Count int64  `json:"count"`
}

// UnresolvedUtterance 是写入 Elasticsearch 的低置信度语句。
type UnresolvedUtterance struct {
	SessionID    string    `json:"session_id"`
	Utterance    string    `json:"utterance"`
	PredictedTag string    `json:"predicted_tag"`
	Confidence   float64   `json:"confidence"`
	Tier         string    `json:"tier"`
	Timestamp    time.Time `json:"timestamp"`
}
