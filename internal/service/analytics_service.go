package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
	"github.com/Vinayak-S-Khosh/CHATBOT/internal/repository"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/es"
	"github.com/Vinayak-S-Khosh/CHATBOT/pkg/events"
)

var (
	// ErrInvalidPeriod 表示不支持的统计周期。
	ErrInvalidPeriod = errors.New("invalid period")
	// ErrAnalyticsDisabled 表示对应的存储没有配置。
	ErrAnalyticsDisabled = errors.New("analytics storage not configured")
)

// AnalyticsReport 是某个统计周期内的回合分布。
type AnalyticsReport struct {
	Period string            `json:"period"`
	Since  *time.Time        `json:"since,omitempty"`
	Tags   []model.TagCount  `json:"tags"`
	Tiers  []model.TierCount `json:"tiers"`
}

// UnresolvedIndex 保存并检索没能确定回答的语句。
type UnresolvedIndex interface {
	Index(ctx context.Context, doc model.UnresolvedUtterance) error
	Search(ctx context.Context, query string, size int) ([]model.UnresolvedUtterance, error)
}

type esUnresolvedIndex struct {
	indexName string
}

// NewESUnresolvedIndex 返回基于 Elasticsearch 的 UnresolvedIndex，需先调用 es.InitES。
func NewESUnresolvedIndex(indexName string) UnresolvedIndex {
	return &esUnresolvedIndex{indexName: indexName}
}

func (i *esUnresolvedIndex) Index(ctx context.Context, doc model.UnresolvedUtterance) error {
	return es.IndexUnresolved(ctx, i.indexName, doc)
}

func (i *esUnresolvedIndex) Search(ctx context.Context, query string, size int) ([]model.UnresolvedUtterance, error) {
	return es.SearchUnresolved(ctx, i.indexName, query, size)
}

// AnalyticsService 记录回合事件并提供统计查询。它同时是 Kafka 消费者的 sink。
type AnalyticsService interface {
	Record(ctx context.Context, event events.TurnEvent) error
	Report(ctx context.Context, period string) (*AnalyticsReport, error)
	SearchUnresolved(ctx context.Context, query string, size int) ([]model.UnresolvedUtterance, error)
}

type analyticsService struct {
	repo  repository.TurnEventRepository
	index UnresolvedIndex
	now   func() time.Time
}

// NewAnalyticsService 创建 AnalyticsService。repo、index 都可以为 nil，对应功能随之关闭。
func NewAnalyticsService(repo repository.TurnEventRepository, index UnresolvedIndex) AnalyticsService {
	return &analyticsService{repo: repo, index: index, now: time.Now}
}

// Record 写入 MySQL；没能确定回答的回合额外写入 Elasticsearch。
func (s *analyticsService) Record(ctx context.Context, event events.TurnEvent) error {
	var errs []error
	if s.repo != nil {
		err := s.repo.Create(ctx, &model.TurnEvent{
			SessionID:    event.SessionID,
			Tier:         event.Tier,
			Tag:          event.Tag,
			PredictedTag: event.PredictedTag,
			Confidence:   event.Confidence,
			Utterance:    event.Utterance,
			CreatedAt:    event.Timestamp,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to store turn event: %w", err))
		}
	}
	if s.index != nil && event.Unresolved() {
		err := s.index.Index(ctx, model.UnresolvedUtterance{
			SessionID:    event.SessionID,
			Utterance:    event.Utterance,
			PredictedTag: event.PredictedTag,
			Confidence:   event.Confidence,
			Tier:         event.Tier,
			Timestamp:    event.Timestamp,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to index unresolved utterance: %w", err))
		}
	}
	return errors.Join(errs...)
}

// periodStart 返回统计周期的起点，空字符串按 weekly 处理；"all" 返回零值时间。
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "weekly", "":
		return now.AddDate(0, 0, -7), nil
	case "monthly":
		return now.AddDate(0, 0, -30), nil
	case "yearly":
		return now.AddDate(0, 0, -365), nil
	case "all":
		return time.Time{}, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
}

// Report 返回周期内按意图和应答路径统计的回合数。
func (s *analyticsService) Report(ctx context.Context, period string) (*AnalyticsReport, error) {
	if s.repo == nil {
		return nil, ErrAnalyticsDisabled
	}
	since, err := periodStart(period, s.now())
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = "weekly"
	}

	tags, err := s.repo.CountByTag(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	tiers, err := s.repo.CountByTier(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count tiers: %w", err)
	}

	report := &AnalyticsReport{Period: period, Tags: tags, Tiers: tiers}
	if !since.IsZero() {
		report.Since = &since
	}
	return report, nil
}

// SearchUnresolved 检索未识别语句，query 为空时返回最近的记录。
func (s *analyticsService) SearchUnresolved(ctx context.Context, query string, size int) ([]model.UnresolvedUtterance, error) {
	if s.index == nil {
		return nil, ErrAnalyticsDisabled
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return s.index.Search(ctx, query, size)
}
