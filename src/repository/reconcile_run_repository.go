package repository

import (
	"context"

	"gorm.io/gorm"

	"tradetracker/src/database"
	"tradetracker/src/model"
)

// ReconcileRunRepository handles persistence of reconcile pass audit
// records.
type ReconcileRunRepository struct {
	db *gorm.DB
}

// NewReconcileRunRepository creates a new repository instance.
func NewReconcileRunRepository() *ReconcileRunRepository {
	return &ReconcileRunRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
func (r *ReconcileRunRepository) WithDB(db *gorm.DB) *ReconcileRunRepository {
	return &ReconcileRunRepository{db: db}
}

// Create persists one reconcile run record.
func (r *ReconcileRunRepository) Create(ctx context.Context, run *model.ReconcileRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

// Recent returns the latest runs, newest first.
func (r *ReconcileRunRepository) Recent(ctx context.Context, limit int) ([]model.ReconcileRun, error) {
	if limit <= 0 {
		limit = 20
	}

	var runs []model.ReconcileRun
	err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
