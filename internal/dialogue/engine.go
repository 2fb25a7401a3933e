package dialogue

import (
	"strings"
	"time"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/catalog"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/classifier"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/log"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/nlp"
)

// Predictor 是对特征向量做意图分类的模型。
type Predictor interface {
	Predict(features []float32) (classifier.Prediction, error)
}

// Engine 串联一次对话回合：图库快捷路径 -> 归一化 -> 向量化 -> 分类 -> 分层应答。
// Engine 本身无可变状态，会话由调用方传入并保证独占。
type Engine struct {
	vocab   *nlp.Vocabulary
	model   Predictor
	router  *Router
	gallery *GalleryDetector
	replies catalog.QuickReplies
	now     func() time.Time
}

// NewEngine 创建 Engine。vocab 必须与 model 来自同一份训练产物。
func NewEngine(vocab *nlp.Vocabulary, model Predictor, router *Router, gallery *GalleryDetector, replies catalog.QuickReplies) *Engine {
	return &Engine{
		vocab:   vocab,
		model:   model,
		router:  router,
		gallery: gallery,
		replies: replies,
		now:     time.Now,
	}
}

// WithClock 替换时间来源，用于测试。
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ProcessTurn 处理一条用户语句并就地更新会话。
func (e *Engine) ProcessTurn(utterance string, sess *model.ConversationSession) model.TurnResult {
	if strings.TrimSpace(utterance) == "" {
		return model.TurnResult{
			Text:        EmptyMessageText,
			Suggestions: e.replies.Default(),
			Tier:        model.TierEmpty,
		}
	}

	if res, ok := e.gallery.Detect(utterance, sess.LastIntent); ok {
		return res
	}

	now := e.now()
	sess.AppendTurn(model.Turn{Role: model.RoleUser, Text: utterance, Timestamp: now})

	features := e.vocab.BagOfWords(nlp.Normalize(utterance))
	pred, err := e.model.Predict(features)
	if err != nil {
		log.Error("intent prediction failed, falling back", err)
		return e.router.Route("", 0, sess, now)
	}
	log.Debugw("intent predicted", "session", sess.ID, "tag", pred.Tag, "confidence", pred.Confidence)
	return e.router.Route(pred.Tag, pred.Confidence, sess, now)
}
