package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tradetracker/src/database"
	"tradetracker/src/model"
)

// SuggestionRepository is the persisted suggestion interface. No other
// component mutates a suggestion's status or broker overlay except
// through it.
//
// The backing store is non-authoritative cache: broker truth can rebuild
// it on the next reconciliation, so reads recover from a missing or
// corrupt store by returning the empty collection instead of failing.
type SuggestionRepository struct {
	db *gorm.DB
}

// NewSuggestionRepository creates a new repository instance using the
// main read/write database.
func NewSuggestionRepository() *SuggestionRepository {
	logger.WithField("component", "SuggestionRepository").
		Debug("Creating new SuggestionRepository with MainDB")

	return &SuggestionRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *SuggestionRepository) WithDB(db *gorm.DB) *SuggestionRepository {
	return &SuggestionRepository{db: db}
}

// SuggestionPatch is a partial update for one suggestion. Nil fields are
// left untouched; Update always bumps UpdatedAt.
type SuggestionPatch struct {
	Strategy     *string
	Setup        *string
	Regime       *string
	EntryPrice   *float64
	TargetPrice  *float64
	StopLoss     *float64
	Confidence   *float64
	SignalAction *string
	Status       *string
	ClosedAt     *time.Time
	ClosedPrice  *float64

	OptionContract *model.OptionContract
	Broker         *model.BrokerRecord
	Evidence       *model.EvidencePacket
}

// Load returns every tracked suggestion, most recent first. A read
// failure is logged and yields the empty collection.
func (r *SuggestionRepository) Load(ctx context.Context) []model.TrackedSuggestion {
	var suggestions []model.TrackedSuggestion

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&suggestions).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SuggestionRepository",
			"op":   "Load",
		}).WithError(err).Warn("Failed to load suggestions, returning empty collection")

		return []model.TrackedSuggestion{}
	}

	return suggestions
}

// Save atomically replaces the whole collection. A concurrent reader sees
// either the old collection or the new one, never a half-written mix.
func (r *SuggestionRepository) Save(ctx context.Context, suggestions []model.TrackedSuggestion) error {
	logger.WithFields(map[string]interface{}{
		"repo":  "SuggestionRepository",
		"op":    "Save",
		"count": len(suggestions),
	}).Debug("Replacing suggestion collection")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.TrackedSuggestion{}).Error; err != nil {
			return err
		}
		if len(suggestions) == 0 {
			return nil
		}
		return tx.Create(&suggestions).Error
	})
}

// Upsert replaces the suggestion with the same id or inserts a new one.
// A blank id gets a generated one.
func (r *SuggestionRepository) Upsert(ctx context.Context, s *model.TrackedSuggestion) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Status == "" {
		s.Status = model.SuggestionStatusActive
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(s).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SuggestionRepository",
			"op":   "Upsert",
			"id":   s.ID,
		}).WithError(err).Error("Failed to upsert suggestion")

		return err
	}

	return nil
}

// Update merges the patch into the stored suggestion and bumps UpdatedAt.
// Returns (nil, nil) when the id does not exist; callers treat that as
// "nothing to do", not an error.
func (r *SuggestionRepository) Update(ctx context.Context, id string, patch SuggestionPatch) (*model.TrackedSuggestion, error) {
	var s model.TrackedSuggestion

	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "SuggestionRepository",
				"op":   "Update",
				"id":   id,
			}).Info("Suggestion not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "SuggestionRepository",
			"op":   "Update",
			"id":   id,
		}).WithError(err).Error("Failed to fetch suggestion")

		return nil, err
	}

	applyPatch(&s, patch)
	s.UpdatedAt = time.Now()

	if err := r.db.WithContext(ctx).Save(&s).Error; err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SuggestionRepository",
			"op":   "Update",
			"id":   id,
		}).WithError(err).Error("Failed to save suggestion")

		return nil, err
	}

	return &s, nil
}

// Delete removes the suggestion by id and reports whether a row existed.
func (r *SuggestionRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.TrackedSuggestion{}, "id = ?", id)
	if res.Error != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "SuggestionRepository",
			"op":   "Delete",
			"id":   id,
		}).WithError(res.Error).Error("Failed to delete suggestion")

		return false, res.Error
	}

	return res.RowsAffected > 0, nil
}

// FindByID fetches one suggestion. Returns (nil, nil) when not found.
func (r *SuggestionRepository) FindByID(ctx context.Context, id string) (*model.TrackedSuggestion, error) {
	var s model.TrackedSuggestion

	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &s, nil
}

func applyPatch(s *model.TrackedSuggestion, patch SuggestionPatch) {
	if patch.Strategy != nil {
		s.Strategy = *patch.Strategy
	}
	if patch.Setup != nil {
		s.Setup = *patch.Setup
	}
	if patch.Regime != nil {
		s.Regime = *patch.Regime
	}
	if patch.EntryPrice != nil {
		s.EntryPrice = *patch.EntryPrice
	}
	if patch.TargetPrice != nil {
		s.TargetPrice = *patch.TargetPrice
	}
	if patch.StopLoss != nil {
		s.StopLoss = *patch.StopLoss
	}
	if patch.Confidence != nil {
		s.Confidence = *patch.Confidence
	}
	if patch.SignalAction != nil {
		s.SignalAction = *patch.SignalAction
	}
	if patch.Status != nil {
		s.Status = *patch.Status
	}
	if patch.ClosedAt != nil {
		s.ClosedAt = patch.ClosedAt
	}
	if patch.ClosedPrice != nil {
		s.ClosedPrice = patch.ClosedPrice
	}
	if patch.OptionContract != nil {
		s.OptionContract = patch.OptionContract
	}
	if patch.Broker != nil {
		s.Broker = patch.Broker
	}
	if patch.Evidence != nil {
		s.Evidence = patch.Evidence
	}
}
