package repo

import (
	"context"
	"time"

	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{
		Repository: orz.NewRepository[models.Session, string](db),
	}
}

type SessionRepo struct {
	orz.Repository[models.Session, string]
}

// FindActive 查找未过期的会话
func (r SessionRepo) FindActive(ctx context.Context, id string, since time.Time) (m models.Session, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("id = ? AND updated_at >= ?", id, since).
		First(&m).Error
	return m, err
}

// DeleteIdle 删除在 before 之前没有活动的会话
func (r SessionRepo) DeleteIdle(ctx context.Context, before time.Time) (int64, error) {
	db := r.GetDB(ctx)
	result := db.Where("updated_at < ?", before).Delete(&models.Session{})
	return result.RowsAffected, result.Error
}

// CountByStrategy 统计每个策略被多少会话选中
func (r SessionRepo) CountByStrategy(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Strategy string
		Total    int64
	}
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Select("strategy, COUNT(*) AS total").
		Where("strategy <> ''").
		Group("strategy").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Strategy] = row.Total
	}
	return out, nil
}
