package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Vinayak-S-Khosh/CHATBOT/internal/model"
)

// TurnEventRepository 定义了对话回合事件的持久化操作。
type TurnEventRepository interface {
	Create(ctx context.Context, event *model.TurnEvent) error
	CountByTag(ctx context.Context, since time.Time) ([]model.TagCount, error)
	CountByTier(ctx context.Context, since time.Time) ([]model.TierCount, error)
}

// turnEventRepository 是 TurnEventRepository 接口的 GORM 实现。
type turnEventRepository struct {
	db *gorm.DB
}

// NewTurnEventRepository 创建一个新的 TurnEventRepository 实例。
func NewTurnEventRepository(db *gorm.DB) TurnEventRepository {
	return &turnEventRepository{db: db}
}

// Create 写入一条回合事件。
func (r *turnEventRepository) Create(ctx context.Context, event *model.TurnEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CountByTag 统计 since 之后每个已确认意图的回合数，按数量降序。
func (r *turnEventRepository) CountByTag(ctx context.Context, since time.Time) ([]model.TagCount, error) {
	var counts []model.TagCount
	err := r.db.WithContext(ctx).Model(&model.TurnEvent{}).
		Select("tag, COUNT(*) AS count").
		Where("created_at >= ? AND tag <> ''", since).
		Group("tag").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}

// CountByTier 统计 since 之后每种应答路径的回合数。
func (r *turnEventRepository) CountByTier(ctx context.Context, since time.Time) ([]model.TierCount, error) {
	var counts []model.TierCount
	err := r.db.WithContext(ctx).Model(&model.TurnEvent{}).
		Select("tier, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("tier").
		Order("count DESC").
		Scan(&counts).Error
	return counts, err
}
