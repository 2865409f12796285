package service

import (
	"context"
	"log/slog"

	"github.com/consignops/fulfillment-service/internal/entities"
	"github.com/consignops/fulfillment-service/internal/repo"
)

type ActivityLister interface {
	ListActivities(ctx context.Context, f repo.ActivityFilter) ([]entities.Activity, error)
}

type ActivityQuery struct {
	ProductID string
	OrderID   string
	Limit     int
	Offset    int
}

const (
	defaultActivityPageSize = 20
	maxActivityPageSize     = 100
)

type activityService struct {
	logger *slog.Logger
	repo   ActivityLister
}

// NewActivityService exposes the raw ledger as a paged, filterable feed.
func NewActivityService(logger *slog.Logger, repo ActivityLister) *activityService {
	return &activityService{
		logger: logger.With(slog.String("service", "activities")),
		repo:   repo,
	}
}

func (s *activityService) List(ctx context.Context, q ActivityQuery) ([]entities.Activity, error) {
	if q.Limit <= 0 {
		q.Limit = defaultActivityPageSize
	}
	if q.Limit > maxActivityPageSize {
		q.Limit = maxActivityPageSize
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	return s.repo.ListActivities(ctx, repo.ActivityFilter{
		ProductID: q.ProductID,
		OrderID:   q.OrderID,
		Limit:     q.Limit,
		Offset:    q.Offset,
	})
}
