package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

// Engine enforces legal order detail state transitions.
type Engine interface {
	Transition(ctx context.Context, tx *gorm.DB, detailID uuid.UUID, targetLabel string) (*TransitionResult, error)
}

type engine struct {
	repo      Repository
	directory directory
}

func NewEngine(repo Repository, dir directory) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if dir == nil {
		return nil, fmt.Errorf("user directory required")
	}
	return &engine{repo: repo, directory: dir}, nil
}

// Transition locks the detail, checks the transition table and persists the
// new state. It must run inside the caller's transaction.
func (e *engine) Transition(ctx context.Context, tx *gorm.DB, detailID uuid.UUID, targetLabel string) (*TransitionResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	target, err := enums.ParseOrderDetailState(targetLabel)
	if err != nil {
		return nil, pkgerrors.NotFound("order detail state").WithDetails(map[string]any{"label": targetLabel})
	}

	repo := e.repo.WithTx(tx)
	detail, err := repo.LockDetail(ctx, detailID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.NotFound("order detail")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order detail")
	}

	from := detail.State
	if !CanTransition(from, target) {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order detail cannot move from %s to %s", from.Label(), target.Label()).
			WithDetails(map[string]any{"from": from, "to": target})
	}

	if err := repo.UpdateDetailState(ctx, detail, target); err != nil {
		if errors.Is(err, dbpkg.ErrStaleVersion) {
			return nil, pkgerrors.Conflict("order detail was updated concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order detail state")
	}

	userID, err := e.directory.OrderOwner(ctx, tx, detail.OrderID)
	if err != nil {
		return nil, err
	}
	productName, err := e.directory.ProductName(ctx, tx, detail.ProductID)
	if err != nil {
		return nil, err
	}

	return &TransitionResult{
		Detail:      *detail,
		From:        from,
		To:          target,
		UserID:      userID,
		ProductName: productName,
	}, nil
}
