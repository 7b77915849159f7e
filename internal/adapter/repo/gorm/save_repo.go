package gormrepo

import (
	"context"
	"errors"

	"villagelife/internal/adapter/repo/gorm/model"
	"villagelife/internal/app/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SaveRepo struct {
	db *gorm.DB
}

func NewSaveRepo(db *gorm.DB) SaveRepo {
	return SaveRepo{db: db}
}

func toRecord(m model.SaveSlot) ports.SaveRecord {
	return ports.SaveRecord{
		Slot:      m.Slot,
		Revision:  m.Revision,
		Version:   m.Version,
		GameDate:  m.GameDate,
		Ticks:     uint64(m.Ticks),
		State:     m.State,
		UpdatedAt: m.UpdatedAt,
	}
}

func (r SaveRepo) GetBySlot(ctx context.Context, slot string) (ports.SaveRecord, error) {
	var m model.SaveSlot
	if err := getDBFromCtx(ctx, r.db).Where("slot = ?", slot).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.SaveRecord{}, ports.ErrNotFound
		}
		return ports.SaveRecord{}, err
	}
	return toRecord(m), nil
}

// SaveWithVersion inserts the slot when expectedVersion is 0 and otherwise
// updates it only if the stored version still matches.
func (r SaveRepo) SaveWithVersion(ctx context.Context, record ports.SaveRecord, expectedVersion int64) error {
	db := getDBFromCtx(ctx, r.db)
	if expectedVersion == 0 {
		m := model.SaveSlot{
			Slot:      record.Slot,
			Revision:  record.Revision,
			Version:   record.Version,
			GameDate:  record.GameDate,
			Ticks:     int64(record.Ticks),
			State:     record.State,
			UpdatedAt: record.UpdatedAt,
		}
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ports.ErrConflict
		}
		return nil
	}

	updates := map[string]any{
		"revision":   record.Revision,
		"version":    record.Version,
		"game_date":  record.GameDate,
		"ticks":      int64(record.Ticks),
		"state":      record.State,
		"updated_at": record.UpdatedAt,
	}
	res := db.Model(&model.SaveSlot{}).
		Where("slot = ? AND version = ?", record.Slot, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func (r SaveRepo) List(ctx context.Context) ([]ports.SaveRecord, error) {
	rows := []model.SaveSlot{}
	err := getDBFromCtx(ctx, r.db).
		Omit("state").
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{{Column: clause.Column{Name: "slot"}}},
		}).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ports.SaveRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	return out, nil
}
