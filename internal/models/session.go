package models

import "time"

// Session 浏览器会话的界面状态
type Session struct {
	ID           string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Strategy     string    `gorm:"type:varchar(255)" json:"strategy"` // 当前选择的策略运行
	PnLMode      int       `gorm:"type:int;not null" json:"pnl_mode"` // 1 账户 2 合计 3 未实现 4 已实现
	PositionMode int       `gorm:"type:int;not null" json:"position_mode"`
	Path         string    `gorm:"type:varchar(255)" json:"path"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}
