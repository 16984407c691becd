package storage

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
)

// Entry is the struct for managing database access to stored values
type Entry struct {
	Key       string    `gorm:"primary_key;size:128" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName keeps the table name stable regardless of gorm pluralization
func (Entry) TableName() string {
	return "storage_entries"
}

// GormKV stores values as rows of a single table, one row per key
type GormKV struct {
	DB *gorm.DB
}

// NewGormKV creates a GormKV on an open connection
func NewGormKV(db *gorm.DB) *GormKV {
	return &GormKV{DB: db}
}

// Migrate creates or updates the storage table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Entry{}).Error; err != nil {
		return fmt.Errorf("storage: auto-migrate: %w", err)
	}
	return nil
}

func (g *GormKV) Get(key string) (string, error) {
	var entry Entry
	result := g.DB.Where("key = ?", key).First(&entry)
	if result.RecordNotFound() {
		return "", ErrNotFound
	}
	if result.Error != nil {
		return "", fmt.Errorf("storage: get %s: %w", key, result.Error)
	}
	return entry.Value, nil
}

func (g *GormKV) Set(key, value string) error {
	entry := Entry{Key: key, Value: value}
	if err := g.DB.Save(&entry).Error; err != nil {
		return fmt.Errorf("storage: set %s: %w", key, err)
	}
	return nil
}
