package outcome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shareaplate_backend/internal/common"
)

// Repository defines persistence for listing outcomes.
type Repository interface {
	// Upsert inserts o, or on a listing conflict updates only updateColumns
	// (nothing when empty). A stored time_to_claim is never replaced. It
	// returns the stored row.
	Upsert(ctx context.Context, o *Outcome, updateColumns ...string) (*Outcome, error)
	FindByListingID(ctx context.Context, listingID uuid.UUID) (*Outcome, error)
	SetNotifiedCount(ctx context.Context, listingID uuid.UUID, count int) error
	// ExpiredListingIDs returns which of ids already have expired=true.
	ExpiredListingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	Aggregate(ctx context.Context, since time.Time) (AggregateRow, error)
}

// AggregateRow is the raw result of Aggregate.
type AggregateRow struct {
	Total       int64
	Claimed     int64
	Expired     int64
	TimedClaims int64
	AvgTime     *float64
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM outcome repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// firstWriteColumns keep their stored value once set.
var firstWriteColumns = map[string]bool{"time_to_claim": true}

func upsertAssignments(columns []string) clause.Set {
	set := clause.AssignmentColumns([]string{"updated_at"})
	for _, col := range columns {
		if !firstWriteColumns[col] {
			set = append(set, clause.AssignmentColumns([]string{col})...)
			continue
		}
		set = append(set, clause.Assignment{
			Column: clause.Column{Name: col},
			Value:  gorm.Expr(fmt.Sprintf("COALESCE(%s.%s, excluded.%s)", Outcome{}.TableName(), col, col)),
		})
	}
	return set
}

func (r *gormRepository) Upsert(ctx context.Context, o *Outcome, updateColumns ...string) (*Outcome, error) {
	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "food_listing_id"}}}
	if len(updateColumns) == 0 {
		conflict.DoNothing = true
	} else {
		conflict.DoUpdates = upsertAssignments(updateColumns)
	}
	if err := r.db.WithContext(ctx).Clauses(conflict).Create(o).Error; err != nil {
		return nil, fmt.Errorf("failed to upsert outcome for listing %s: %w", o.FoodListingID, err)
	}
	return r.FindByListingID(ctx, o.FoodListingID)
}

func (r *gormRepository) FindByListingID(ctx context.Context, listingID uuid.UUID) (*Outcome, error) {
	var o Outcome
	if err := r.db.WithContext(ctx).Where("food_listing_id = ?", listingID).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Outcome not found for listing.")
		}
		return nil, fmt.Errorf("failed to find outcome for listing %s: %w", listingID, err)
	}
	return &o, nil
}

func (r *gormRepository) SetNotifiedCount(ctx context.Context, listingID uuid.UUID, count int) error {
	result := r.db.WithContext(ctx).Model(&Outcome{}).
		Where("food_listing_id = ?", listingID).
		Update("notified_count", count)
	if result.Error != nil {
		return fmt.Errorf("failed to set notified count for listing %s: %w", listingID, result.Error)
	}
	if result.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Outcome not found for listing.")
	}
	return nil
}

func (r *gormRepository) ExpiredListingIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	expired := make(map[uuid.UUID]bool)
	if len(ids) == 0 {
		return expired, nil
	}
	var found []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Outcome{}).
		Where("food_listing_id IN ? AND expired = ?", ids, true).
		Pluck("food_listing_id", &found).Error
	if err != nil {
		return nil, fmt.Errorf("failed to look up expired outcomes: %w", err)
	}
	for _, id := range found {
		expired[id] = true
	}
	return expired, nil
}

// Aggregate counts outcomes created at or after since. AvgTime only covers
// rows with a recorded time_to_claim.
func (r *gormRepository) Aggregate(ctx context.Context, since time.Time) (AggregateRow, error) {
	var row AggregateRow
	query := r.db.WithContext(ctx).Model(&Outcome{}).Select(
		"COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN claimed = ? THEN 1 ELSE 0 END), 0) AS claimed, "+
			"COALESCE(SUM(CASE WHEN expired = ? THEN 1 ELSE 0 END), 0) AS expired, "+
			"COUNT(time_to_claim) AS timed_claims, "+
			"AVG(time_to_claim) AS avg_time",
		true, true,
	)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Scan(&row).Error; err != nil {
		return row, fmt.Errorf("failed to aggregate outcomes: %w", err)
	}
	return row, nil
}
