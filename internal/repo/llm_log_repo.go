package repo

import (
	"context"

	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewLLMLogRepo(db *gorm.DB) *LLMLogRepo {
	return &LLMLogRepo{
		Repository: orz.NewRepository[models.LLMLog, string](db),
	}
}

type LLMLogRepo struct {
	orz.Repository[models.LLMLog, string]
}

// FindRecentByStrategy 获取某个策略最近的分析日志
func (r LLMLogRepo) FindRecentByStrategy(ctx context.Context, strategy string, limit int) ([]models.LLMLog, error) {
	var logs []models.LLMLog
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("strategy = ? AND deleted_at IS NULL", strategy).
		Order("executed_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
