package models

import "time"

// Branch is a customer location that places orders on behalf of its users.
type Branch struct {
	ID        int64     `gorm:"column:branch_id;primaryKey;autoIncrement"`
	Code      string    `gorm:"column:code;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Branch) TableName() string { return "branches" }
