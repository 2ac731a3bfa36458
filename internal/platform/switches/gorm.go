package switches

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Switch is a row of the waffle_switch table shared with the LMS.
type Switch struct {
	ID       int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Name     string    `gorm:"column:name;type:varchar(100);not null;uniqueIndex"`
	Active   bool      `gorm:"column:active;not null"`
	Note     string    `gorm:"column:note;type:text;not null"`
	Created  time.Time `gorm:"column:created;not null"`
	Modified time.Time `gorm:"column:modified;not null"`
}

func (Switch) TableName() string { return "waffle_switch" }

// Gorm reads switches from the database.
type Gorm struct {
	db *gorm.DB
}

func NewGorm(db *gorm.DB) *Gorm { return &Gorm{db: db} }

func (g *Gorm) Lookup(ctx context.Context, name string) (bool, bool, error) {
	var rows []Switch
	if err := g.db.WithContext(ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&rows).Error; err != nil {
		return false, false, fmt.Errorf("load switch %q: %w", name, err)
	}
	if len(rows) == 0 {
		return false, false, nil
	}
	return rows[0].Active, true, nil
}

func (g *Gorm) Set(ctx context.Context, name string, active bool) error {
	now := time.Now().UTC()
	row := &Switch{Name: name, Active: active, Created: now, Modified: now}
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"active", "modified"}),
		}).
		Create(row).Error
}
