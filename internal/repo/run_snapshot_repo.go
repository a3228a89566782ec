package repo

import (
	"context"

	"github.com/dushixiang/magicbutton/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewRunSnapshotRepo(db *gorm.DB) *RunSnapshotRepo {
	return &RunSnapshotRepo{
		Repository: orz.NewRepository[models.RunSnapshot, string](db),
	}
}

type RunSnapshotRepo struct {
	orz.Repository[models.RunSnapshot, string]
}

// FindRecentByStrategy 获取某个策略最近的快照
func (r RunSnapshotRepo) FindRecentByStrategy(ctx context.Context, strategy string, limit int) ([]models.RunSnapshot, error) {
	var snapshots []models.RunSnapshot
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("strategy = ? AND deleted_at IS NULL", strategy).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&snapshots).Error
	return snapshots, err
}

// FindLatestByStrategy 获取某个策略最新的快照
func (r RunSnapshotRepo) FindLatestByStrategy(ctx context.Context, strategy string) (m models.RunSnapshot, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("strategy = ? AND deleted_at IS NULL", strategy).
		Order("recorded_at DESC").
		First(&m).Error
	return m, err
}
