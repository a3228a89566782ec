package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RunSnapshot 策略运行加载时记录的概览
type RunSnapshot struct {
	ID             string                      `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Strategy       string                      `gorm:"type:varchar(255);not null;index" json:"strategy"`
	InitialBalance float64                     `gorm:"type:decimal(20,8)" json:"initial_balance"` // 初始资金
	Balance        float64                     `gorm:"type:decimal(20,8)" json:"balance"`         // 初始资金 + 累计收益
	TotalPnL       float64                     `gorm:"type:decimal(20,8)" json:"total_pnl"`       // 累计收益
	DailyPnL       float64                     `gorm:"type:decimal(20,8)" json:"daily_pnl"`       // 最近一日收益
	Fee            float64                     `gorm:"type:decimal(20,8)" json:"fee"`             // 预估手续费
	FeePercent     float64                     `gorm:"type:decimal(10,4)" json:"fee_percent"`
	ReturnPercent  float64                     `gorm:"type:decimal(10,4)" json:"return_percent"`
	Symbols        datatypes.JSONSlice[string] `gorm:"type:json" json:"symbols"` // 有行情的标的
	Dropped        datatypes.JSONSlice[string] `gorm:"type:json" json:"dropped"` // 缺少行情被剔除的标的
	Summary        datatypes.JSON              `gorm:"type:json" json:"summary"` // 卡片与敞口
	LastPointAt    time.Time                   `json:"last_point_at"`            // 数据最后时刻
	RecordedAt     time.Time                   `gorm:"not null;index" json:"recorded_at"`
	CreatedAt      time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt      gorm.DeletedAt              `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (RunSnapshot) TableName() string {
	return "run_snapshots"
}
