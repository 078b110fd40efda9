package orders

import (
	"context"
	"fmt"

	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Service serves the admin order read models.
type Service interface {
	StateCounts(ctx context.Context) ([]StateCount, error)
	ListByStatus(ctx context.Context, label string, page pagination.Page) (pagination.Result[OrderDetailView], error)
	ListCanceled(ctx context.Context, page pagination.Page) (pagination.Result[OrderDetailView], error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// StateCounts returns one entry per state, zero included, in pipeline order.
func (s *service) StateCounts(ctx context.Context) ([]StateCount, error) {
	counts, err := s.repo.CountByState(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count order details")
	}
	out := make([]StateCount, 0, len(counts))
	for _, state := range enums.OrderDetailStates() {
		out = append(out, StateCount{State: state, Label: state.Label(), Count: counts[state]})
	}
	return out, nil
}

func (s *service) ListByStatus(ctx context.Context, label string, page pagination.Page) (pagination.Result[OrderDetailView], error) {
	state, err := enums.ParseOrderDetailState(label)
	if err != nil {
		return pagination.Result[OrderDetailView]{}, pkgerrors.InvalidArgument("unknown order status").
			WithDetails(map[string]any{"status": label})
	}
	return s.list(ctx, state, page)
}

func (s *service) ListCanceled(ctx context.Context, page pagination.Page) (pagination.Result[OrderDetailView], error) {
	return s.list(ctx, enums.OrderDetailStateOrderCancel, page)
}

func (s *service) list(ctx context.Context, state enums.OrderDetailState, page pagination.Page) (pagination.Result[OrderDetailView], error) {
	rows, total, err := s.repo.ListByState(ctx, state, page)
	if err != nil {
		return pagination.Result[OrderDetailView]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order details")
	}
	return pagination.NewResult(rows, page, total), nil
}
