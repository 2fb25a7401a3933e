package model

// Tier 标识一次回合最终走了哪条应答路径。
type Tier string

const (
	TierEmpty         Tier = "empty"
	TierGallery       Tier = "gallery"
	TierResolved      Tier = "resolved"
	TierClarification Tier = "clarification"
	TierFallback      Tier = "fallback"
	TierEscalation    Tier = "escalation"
)

// TurnResult 是一次对话回合返回给消息投递层的数据。
// 带 json:"-" 的字段只在服务内部用于分析事件。
type TurnResult struct {
	Text               string   `json:"response"`
	ConfidencePercent  float64  `json:"confidence"`
	Tag                string   `json:"intent,omitempty"`
	Suggestions        []string `json:"suggestions"`
	NeedsClarification bool     `json:"needsClarification,omitempty"`
	LowConfidence      bool     `json:"lowConfidence,omitempty"`
	Images             []string `json:"images,omitempty"`

	Tier         Tier    `json:"-"`
	PredictedTag string  `json:"-"`
	Confidence   float64 `json:"-"`
}
