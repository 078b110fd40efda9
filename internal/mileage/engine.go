package mileage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/ledger"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

// RequestView is one row of the admin charge request list.
type RequestView struct {
	ID          uuid.UUID                 `json:"mileageRequestId"`
	UserID      uuid.UUID                 `json:"userId"`
	UserName    string                    `json:"userName"`
	Email       string                    `json:"email"`
	Amount      int64                     `json:"amount"`
	State       enums.MileageRequestState `json:"state"`
	RequestedAt time.Time                 `json:"requestedAt"`
	ResolvedAt  *time.Time                `json:"resolvedAt,omitempty"`
}

// ResolveResult reports the decision and, on approval, the new balance.
type ResolveResult struct {
	Request  models.MileageRequest
	Approved bool
	UserName string
	Balance  int64
}

type userLookup interface {
	User(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.User, error)
}

type ledgerAppender interface {
	Append(ctx context.Context, tx *gorm.DB, input ledger.AppendInput) (*models.Mileage, error)
}

// Engine decides pending charge requests.
type Engine interface {
	Resolve(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, approve bool) (*ResolveResult, error)
}

type engine struct {
	repo   Repository
	users  userLookup
	ledger ledgerAppender
	now    func() time.Time
}

func NewEngine(repo Repository, users userLookup, ledgerSvc ledgerAppender) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("mileage repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &engine{
		repo:   repo,
		users:  users,
		ledger: ledgerSvc,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Resolve approves or refuses a PROCESSING request exactly once. Approval
// credits the requested amount to the requester's ledger.
func (e *engine) Resolve(ctx context.Context, tx *gorm.DB, requestID uuid.UUID, approve bool) (*ResolveResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}

	repo := e.repo.WithTx(tx)
	req, err := repo.LockRequest(ctx, requestID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.NotFound("mileage request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mileage request")
	}
	if req.State != enums.MileageRequestProcessing {
		return nil, pkgerrors.InvalidState("mileage request already resolved").
			WithDetails(map[string]any{"state": req.State})
	}

	state := enums.MileageRequestRefusal
	if approve {
		state = enums.MileageRequestApproval
	}
	if err := repo.Resolve(ctx, req, state, e.now()); err != nil {
		if errors.Is(err, dbpkg.ErrStaleVersion) {
			return nil, pkgerrors.Conflict("mileage request was updated concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update mileage request")
	}

	user, err := e.users.User(ctx, tx, req.UserID)
	if err != nil {
		return nil, err
	}
	result := &ResolveResult{Request: *req, Approved: approve, UserName: user.Name, Balance: user.Mileage}
	if !approve {
		return result, nil
	}

	entry, err := e.ledger.Append(ctx, tx, ledger.AppendInput{
		UserID: req.UserID,
		Change: req.Amount,
		Reason: enums.MileageReasonCharge,
	})
	if err != nil {
		return nil, err
	}
	result.Balance = entry.RemainMileage
	return result, nil
}
