package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Page struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalId      string         `gorm:"type:varchar(64);not null;uniqueIndex"`
	Slug            string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	Title           string         `gorm:"type:varchar(255);not null"`
	Content         datatypes.JSON `gorm:"type:jsonb"` // raw block tree as synced
	PlainText       string         `gorm:"type:text"`  // flattened text for ILIKE search
	Published       bool           `gorm:"default:false;index"`
	Version         int            `gorm:"default:1"`
	SourceUpdatedAt *time.Time
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime"`
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}

func (Page) TableName() string {
	return "pages"
}
