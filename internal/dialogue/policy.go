// Package dialogue 实现一次对话回合的决策：图库快捷路径、置信度分层、回复格式化。
package dialogue

import (
	"fmt"
	"math"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
)

// Thresholds 是置信度分层的阈值。每一层的下界都是开区间，
// 因此 [0,1] 中任意置信度都只落在一层。
type Thresholds struct {
	Resolved      float64
	Clarify       float64
	EscalateAfter int
}

// DefaultThresholds 返回默认阈值：0.75 / 0.50，连续失败 3 次转人工。
func DefaultThresholds() Thresholds {
	return Thresholds{Resolved: 0.75, Clarify: 0.50, EscalateAfter: 3}
}

// Validate 检查阈值是否构成合法的分层。
func (t Thresholds) Validate() error {
	if t.Clarify < 0 || t.Resolved > 1 || t.Clarify >= t.Resolved {
		return fmt.Errorf("invalid confidence thresholds: clarify=%.2f resolved=%.2f", t.Clarify, t.Resolved)
	}
	if t.EscalateAfter < 1 {
		return fmt.Errorf("invalid escalation threshold: %d", t.EscalateAfter)
	}
	return nil
}

// TierFor 返回置信度所属的层。
func (t Thresholds) TierFor(confidence float64) model.Tier {
	switch {
	case confidence > t.Resolved:
		return model.TierResolved
	case confidence > t.Clarify:
		return model.TierClarification
	default:
		return model.TierFallback
	}
}

// Percent 把 [0,1] 的置信度换算为保留一位小数的百分数。
func Percent(confidence float64) float64 {
	return math.Round(confidence*1000) / 10
}
