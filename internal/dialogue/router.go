package dialogue

import (
	"time"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/catalog"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
)

// Router 根据分类器的置信度选择应答策略，并更新会话状态。
type Router struct {
	intents        *catalog.IntentCatalog
	replies        catalog.QuickReplies
	formatter      *Formatter
	thresholds     Thresholds
	rnd            Rand
	escalationText string
}

// NewRouter 创建 Router。escalationText 为空时使用 DefaultEscalationText。
func NewRouter(intents *catalog.IntentCatalog, replies catalog.QuickReplies, formatter *Formatter, thresholds Thresholds, rnd Rand, escalationText string) *Router {
	if escalationText == "" {
		escalationText = DefaultEscalationText
	}
	return &Router{
		intents:        intents,
		replies:        replies,
		formatter:      formatter,
		thresholds:     thresholds,
		rnd:            rnd,
		escalationText: escalationText,
	}
}

// Route 处理一次分类结果。sess 由调用方保证在本回合内独占。
func (r *Router) Route(tag string, confidence float64, sess *model.ConversationSession, now time.Time) model.TurnResult {
	switch r.thresholds.TierFor(confidence) {
	case model.TierResolved:
		if res, ok := r.resolve(tag, confidence, sess, now); ok {
			return res
		}
		log.Warnw("classifier returned a tag without catalog entry", "tag", tag, "confidence", confidence)
		return r.fallback(tag, confidence, sess, now)
	case model.TierClarification:
		return r.clarify(tag, confidence, sess, now)
	default:
		return r.fallback(tag, confidence, sess, now)
	}
}

func (r *Router) resolve(tag string, confidence float64, sess *model.ConversationSession, now time.Time) (model.TurnResult, bool) {
	responses, ok := r.intents.Responses(tag)
	if !ok || len(responses) == 0 {
		return model.TurnResult{}, false
	}
	text := r.formatter.Format(responses[r.rnd.Intn(len(responses))], tag)

	sess.MarkResolved(tag)
	sess.AppendTurn(botTurn(text, tag, confidence, now))

	return model.TurnResult{
		Text:              text,
		ConfidencePercent: Percent(confidence),
		Tag:               tag,
		Suggestions:       r.replies.For(tag),
		Tier:              model.TierResolved,
		PredictedTag:      tag,
		Confidence:        confidence,
	}, true
}

func (r *Router) clarify(tag string, confidence float64, sess *model.ConversationSession, now time.Time) model.TurnResult {
	text := clarificationText(tag)
	sess.MarkClarification()
	sess.AppendTurn(botTurn(text, "", confidence, now))

	return model.TurnResult{
		Text:               text,
		ConfidencePercent:  Percent(confidence),
		Suggestions:        r.replies.For(tag),
		NeedsClarification: true,
		Tier:               model.TierClarification,
		PredictedTag:       tag,
		Confidence:         confidence,
	}
}

func (r *Router) fallback(tag string, confidence float64, sess *model.ConversationSession, now time.Time) model.TurnResult {
	tier := model.TierFallback
	text := rephraseText
	if sess.MarkFallback(r.thresholds.EscalateAfter) {
		tier = model.TierEscalation
		text = r.escalationText
	}
	sess.AppendTurn(botTurn(text, "", confidence, now))

	return model.TurnResult{
		Text:              text,
		ConfidencePercent: Percent(confidence),
		Suggestions:       r.replies.Fallback(),
		LowConfidence:     true,
		Tier:              tier,
		PredictedTag:      tag,
		Confidence:        confidence,
	}
}

func botTurn(text, tag string, confidence float64, now time.Time) model.Turn {
	c := confidence
	return model.Turn{
		Role:       model.RoleBot,
		Text:       text,
		Timestamp:  now,
		Intent:     tag,
		Confidence: &c,
	}
}
