// Package store persists the studio state in SQLite: the single draft
// slot, a bounded gallery snapshot, user presets, custom ambiences, and
// the render history log.
package store

import (
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inovacaoentalhe/estudio-imagem-v6/internal/studio"
)

// MaxGalleryRecords bounds how many gallery items the snapshot keeps.
// Older items survive only through the history log.
const MaxGalleryRecords = 10

// draftRecord is the single-slot draft. ID is always 1.
type draftRecord struct {
	ID        int            `gorm:"primaryKey"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt int64          `gorm:"autoUpdateTime:milli"`
}

type galleryRecord struct {
	ID       string         `gorm:"primaryKey"`
	Position int            `gorm:"index;not null"`
	Payload  datatypes.JSON `gorm:"not null"`
}

type presetRecord struct {
	ID        string         `gorm:"primaryKey"`
	Payload   datatypes.JSON `gorm:"not null"`
	UpdatedAt int64          `gorm:"autoUpdateTime:milli"`
}

type ambienceRecord struct {
	ID      string         `gorm:"primaryKey"`
	Payload datatypes.JSON `gorm:"not null"`
}

// historyRecord orders by an autoincrement sequence rather than a
// timestamp so same-millisecond appends still trim oldest-first.
type historyRecord struct {
	Seq     uint64         `gorm:"primaryKey;autoIncrement"`
	ID      string         `gorm:"uniqueIndex;not null"`
	Payload datatypes.JSON `gorm:"not null"`
}

// Store wraps the SQLite database.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database file and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&draftRecord{}, &galleryRecord{}, &presetRecord{}, &ambienceRecord{}, &historyRecord{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveDraft upserts the single draft slot.
func (s *Store) SaveDraft(form studio.FormData) error {
	payload, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	rec := draftRecord{ID: 1, Payload: payload}
	return s.db.Save(&rec).Error
}

// LoadDraft returns the persisted draft, or nil when none exists.
func (s *Store) LoadDraft() (*studio.FormData, error) {
	var rec draftRecord
	err := s.db.First(&rec, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var form studio.FormData
	if err := json.Unmarshal(rec.Payload, &form); err != nil {
		return nil, fmt.Errorf("unmarshal draft: %w", err)
	}
	return &form, nil
}

// SaveGallery replaces the gallery snapshot with the newest items, keeping
// list order. Anything beyond the record cap is dropped.
func (s *Store) SaveGallery(items []studio.GalleryItem) error {
	if len(items) > MaxGalleryRecords {
		items = items[:MaxGalleryRecords]
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&galleryRecord{}).Error; err != nil {
			return err
		}
		for i, it := range items {
			payload, err := json.Marshal(it)
			if err != nil {
				return fmt.Errorf("marshal gallery item %s: %w", it.ID, err)
			}
			rec := galleryRecord{ID: it.ID, Position: i, Payload: payload}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadGallery returns the persisted gallery snapshot in list order.
func (s *Store) LoadGallery() ([]studio.GalleryItem, error) {
	var recs []galleryRecord
	if err := s.db.Order("position asc").Find(&recs).Error; err != nil {
		return nil, err
	}
	items := make([]studio.GalleryItem, 0, len(recs))
	for _, rec := range recs {
		var it studio.GalleryItem
		if err := json.Unmarshal(rec.Payload, &it); err != nil {
			return nil, fmt.Errorf("unmarshal gallery item %s: %w", rec.ID, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// SavePreset upserts one user preset. System presets never hit the store.
func (s *Store) SavePreset(p studio.Preset) error {
	if p.IsSystem {
		return errors.New("system presets are not persisted")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}
	rec := presetRecord{ID: p.ID, Payload: payload}
	return s.db.Save(&rec).Error
}

// DeletePreset removes one user preset.
func (s *Store) DeletePreset(id string) error {
	return s.db.Delete(&presetRecord{}, "id = ?", id).Error
}

// ListPresets returns every stored user preset.
func (s *Store) ListPresets() ([]studio.Preset, error) {
	var recs []presetRecord
	if err := s.db.Order("updated_at desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	presets := make([]studio.Preset, 0, len(recs))
	for _, rec := range recs {
		var p studio.Preset
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return nil, fmt.Errorf("unmarshal preset %s: %w", rec.ID, err)
		}
		presets = append(presets, p)
	}
	return presets, nil
}

// SaveAmbience upserts one custom ambience.
func (s *Store) SaveAmbience(a studio.Ambience) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal ambience: %w", err)
	}
	rec := ambienceRecord{ID: a.ID, Payload: payload}
	return s.db.Save(&rec).Error
}

// DeleteAmbience removes one custom ambience.
func (s *Store) DeleteAmbience(id string) error {
	return s.db.Delete(&ambienceRecord{}, "id = ?", id).Error
}

// ListAmbiences returns every stored custom ambience.
func (s *Store) ListAmbiences() ([]studio.Ambience, error) {
	var recs []ambienceRecord
	if err := s.db.Find(&recs).Error; err != nil {
		return nil, err
	}
	ambiences := make([]studio.Ambience, 0, len(recs))
	for _, rec := range recs {
		var a studio.Ambience
		if err := json.Unmarshal(rec.Payload, &a); err != nil {
			return nil, fmt.Errorf("unmarshal ambience %s: %w", rec.ID, err)
		}
		ambiences = append(ambiences, a)
	}
	return ambiences, nil
}

// AppendHistory inserts one history entry and trims the log to its cap,
// dropping the oldest entries first.
func (s *Store) AppendHistory(entry studio.HistoryMetadata) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		rec := historyRecord{ID: entry.ID, Payload: payload}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&historyRecord{}).Count(&count).Error; err != nil {
			return err
		}
		if count <= studio.MaxHistoryItems {
			return nil
		}
		var stale []historyRecord
		if err := tx.Order("seq asc").Limit(int(count) - studio.MaxHistoryItems).Find(&stale).Error; err != nil {
			return err
		}
		for _, old := range stale {
			if err := tx.Delete(&historyRecord{}, "seq = ?", old.Seq).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ListHistory returns history entries, newest first.
func (s *Store) ListHistory() ([]studio.HistoryMetadata, error) {
	var recs []historyRecord
	if err := s.db.Order("seq desc").Find(&recs).Error; err != nil {
		return nil, err
	}
	entries := make([]studio.HistoryMetadata, 0, len(recs))
	for _, rec := range recs {
		var entry studio.HistoryMetadata
		if err := json.Unmarshal(rec.Payload, &entry); err != nil {
			return nil, fmt.Errorf("unmarshal history entry %s: %w", rec.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ClearHistory wipes the history log.
func (s *Store) ClearHistory() error {
	return s.db.Where("1 = 1").Delete(&historyRecord{}).Error
}

// ReplaceHistory swaps the history log wholesale (backup import).
func (s *Store) ReplaceHistory(entries []studio.HistoryMetadata) error {
	if len(entries) > studio.MaxHistoryItems {
		entries = entries[:studio.MaxHistoryItems]
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&historyRecord{}).Error; err != nil {
			return err
		}
		// Entries arrive newest first; insert oldest first so sequence
		// order matches age.
		for i := len(entries) - 1; i >= 0; i-- {
			payload, err := json.Marshal(entries[i])
			if err != nil {
				return fmt.Errorf("marshal history entry: %w", err)
			}
			rec := historyRecord{ID: entries[i].ID, Payload: payload}
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
