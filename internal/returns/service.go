package returns

import (
	"context"
	"fmt"
	"slices"

	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Service serves the admin return queue.
type Service interface {
	List(ctx context.Context, label string, page pagination.Page) (*ListResult, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	return &service{repo: repo}, nil
}

// List pages one queue. Only the request, collecting and collected queues
// are listable; the counts always cover all three.
func (s *service) List(ctx context.Context, label string, page pagination.Page) (*ListResult, error) {
	state, err := enums.ParseReturnState(label)
	if err != nil || !slices.Contains(enums.ListableReturnStates, state) {
		return nil, pkgerrors.NotFound("return state").WithDetails(map[string]any{"status": label})
	}

	rows, total, err := s.repo.ListByState(ctx, state, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	counts, err := s.repo.CountByState(ctx, enums.ListableReturnStates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count returns")
	}

	out := &ListResult{Result: pagination.NewResult(rows, page, total)}
	for _, st := range enums.ListableReturnStates {
		out.Counts = append(out.Counts, StateCount{State: st, Label: st.Label(), Count: counts[st]})
	}
	return out, nil
}
