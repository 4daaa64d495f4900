package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type DecomposeCallRepo interface {
	Create(ctx context.Context, call *domain.DecomposeCall) error
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error)
}

type decomposeCallRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDecomposeCallRepo(db *gorm.DB, baseLog *logger.Logger) DecomposeCallRepo {
	repoLog := baseLog.With("repo", "DecomposeCallRepo")
	return &decomposeCallRepo{db: db, log: repoLog}
}

func (r *decomposeCallRepo) Create(ctx context.Context, call *domain.DecomposeCall) error {
	if call == nil {
		return nil
	}
	if call.ID == uuid.Nil {
		call.ID = uuid.New()
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(call).Error
}

// CountByOutcome aggregates calls created at or after since.
func (r *decomposeCallRepo) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		N       int64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.DecomposeCall{}).
		Select("outcome, COUNT(*) AS n").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Outcome] = row.N
	}
	return out, nil
}
