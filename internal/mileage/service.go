package mileage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Service lists charge requests and accepts new ones from customers.
type Service interface {
	List(ctx context.Context, status string, page pagination.Page) (pagination.Result[RequestView], error)
	Request(ctx context.Context, userID uuid.UUID, amount int64) (*models.MileageRequest, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("mileage repository required")
	}
	return &service{repo: repo}, nil
}

// List accepts PROCESSING or PROCESSED; the latter covers approved and refused.
func (s *service) List(ctx context.Context, status string, page pagination.Page) (pagination.Result[RequestView], error) {
	filter, err := enums.ParseMileageRequestFilter(status)
	if err != nil {
		return pagination.Result[RequestView]{}, pkgerrors.InvalidArgument("unknown mileage request status").
			WithDetails(map[string]any{"status": status})
	}
	rows, total, err := s.repo.List(ctx, filter.States(), page)
	if err != nil {
		return pagination.Result[RequestView]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mileage requests")
	}
	return pagination.NewResult(rows, page, total), nil
}

func (s *service) Request(ctx context.Context, userID uuid.UUID, amount int64) (*models.MileageRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.InvalidArgument("user id is required")
	}
	if amount <= 0 {
		return nil, pkgerrors.InvalidArgument("amount must be positive")
	}
	req := &models.MileageRequest{UserID: userID, Amount: amount, State: enums.MileageRequestProcessing}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create mileage request")
	}
	return req, nil
}
