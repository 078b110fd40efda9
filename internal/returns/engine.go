package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/ledger"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

const maxContentsLength = 1000

var hundred = decimal.NewFromInt(100)

// Engine drives a return through collection and refund. Every method runs
// inside the caller's transaction and locks the rows it changes.
type Engine interface {
	Advance(ctx context.Context, tx *gorm.DB, returnID uuid.UUID, targetLabel string) (*AdvanceResult, error)
	IssueRefund(ctx context.Context, tx *gorm.DB, returnID uuid.UUID, percent int) (*RefundResult, error)
	RequestReturn(ctx context.Context, tx *gorm.DB, input RequestInput) (*models.Return, error)
}

type engine struct {
	repo      Repository
	directory directory
	ledger    ledgerAppender
	now       func() time.Time
}

func NewEngine(repo Repository, dir directory, ledgerSvc ledgerAppender) (Engine, error) {
	if repo == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if dir == nil {
		return nil, fmt.Errorf("user directory required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	return &engine{
		repo:      repo,
		directory: dir,
		ledger:    ledgerSvc,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// RefundAmount is floor(salePrice * percent / 100).
func RefundAmount(salePrice int64, percent int) int64 {
	return decimal.NewFromInt(salePrice).
		Mul(decimal.NewFromInt(int64(percent))).
		Div(hundred).
		Floor().
		IntPart()
}

// Advance moves a return forward along request, collecting and collected.
// Entering the collected state opens the pending refund.
func (e *engine) Advance(ctx context.Context, tx *gorm.DB, returnID uuid.UUID, targetLabel string) (*AdvanceResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	target, err := enums.ParseReturnState(targetLabel)
	if err != nil {
		return nil, pkgerrors.NotFound("return state").WithDetails(map[string]any{"label": targetLabel})
	}

	repo := e.repo.WithTx(tx)
	ret, err := repo.LockReturn(ctx, returnID)
	if err != nil {
		return nil, notFoundOr(err, "return")
	}

	from := ret.State
	if target == enums.ReturnStateRefundComplete {
		return nil, pkgerrors.InvalidState("refunds complete only by issuing a refund").
			WithDetails(map[string]any{"from": from, "to": target})
	}
	if target.Rank() <= from.Rank() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "return cannot move from %s to %s", from.Label(), target.Label()).
			WithDetails(map[string]any{"from": from, "to": target})
	}

	if err := repo.UpdateReturnState(ctx, ret, target); err != nil {
		if errors.Is(err, dbpkg.ErrStaleVersion) {
			return nil, pkgerrors.Conflict("return was updated concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return state")
	}

	created := false
	if target == enums.ReturnStateCollectComplete {
		if err := e.openRefund(ctx, repo, ret.ID); err != nil {
			return nil, err
		}
		created = true
	}

	detail, err := repo.FindDetail(ctx, ret.OrderDetailID)
	if err != nil {
		return nil, notFoundOr(err, "order detail")
	}
	userID, productName, err := e.recipient(ctx, tx, detail)
	if err != nil {
		return nil, err
	}

	return &AdvanceResult{
		Return:        *ret,
		From:          from,
		To:            target,
		RefundCreated: created,
		OrderID:       detail.OrderID,
		ProductID:     detail.ProductID,
		UserID:        userID,
		ProductName:   productName,
	}, nil
}

func (e *engine) openRefund(ctx context.Context, repo Repository, returnID uuid.UUID) error {
	existing, err := repo.FindRefund(ctx, returnID)
	switch {
	case err == nil && existing != nil:
		return pkgerrors.InvalidState("refund already exists for return")
	case err != nil && !dbpkg.IsNotFound(err):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund")
	}

	if err := repo.CreateRefund(ctx, &models.Refund{ReturnID: returnID}); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return pkgerrors.InvalidState("refund already exists for return")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
	}
	return nil
}

// IssueRefund settles the pending refund of a collected return and credits the
// buyer's mileage with the computed amount.
func (e *engine) IssueRefund(ctx context.Context, tx *gorm.DB, returnID uuid.UUID, percent int) (*RefundResult, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	if percent < 0 || percent > 100 {
		return nil, pkgerrors.InvalidArgument("percent must be between 0 and 100").
			WithDetails(map[string]any{"percent": percent})
	}

	repo := e.repo.WithTx(tx)
	ret, err := repo.LockReturn(ctx, returnID)
	if err != nil {
		return nil, notFoundOr(err, "return")
	}
	switch ret.State {
	case enums.ReturnStateCollectComplete:
	case enums.ReturnStateRefundComplete:
		return nil, pkgerrors.InvalidState("refund already completed")
	default:
		return nil, pkgerrors.InvalidState("return not collected").WithDetails(map[string]any{"state": ret.State})
	}

	refund, err := repo.FindRefund(ctx, ret.ID)
	if err != nil {
		return nil, notFoundOr(err, "refund")
	}
	if refund.Completed {
		return nil, pkgerrors.InvalidState("refund already completed")
	}

	detail, err := repo.LockDetail(ctx, ret.OrderDetailID)
	if err != nil {
		return nil, notFoundOr(err, "order detail")
	}
	amount := RefundAmount(detail.SalePrice, percent)

	if err := repo.UpdateDetailState(ctx, detail, enums.OrderDetailStateReturnComplete); err != nil {
		return nil, writeError(err, "order detail")
	}
	if err := repo.UpdateReturnState(ctx, ret, enums.ReturnStateRefundComplete); err != nil {
		return nil, writeError(err, "return")
	}
	if err := repo.CompleteRefund(ctx, refund, percent, amount, e.now()); err != nil {
		return nil, writeError(err, "refund")
	}

	userID, productName, err := e.recipient(ctx, tx, detail)
	if err != nil {
		return nil, err
	}
	entry, err := e.ledger.Append(ctx, tx, ledger.AppendInput{
		UserID: userID,
		Change: amount,
		Reason: enums.MileageReasonRefund,
	})
	if err != nil {
		return nil, err
	}

	return &RefundResult{
		ReturnID:    ret.ID,
		RefundID:    refund.ID,
		DetailID:    detail.ID,
		Percent:     percent,
		Amount:      amount,
		UserID:      userID,
		ProductName: productName,
		Balance:     entry.RemainMileage,
	}, nil
}

// RequestReturn opens a return for a delivered line item owned by the user.
func (e *engine) RequestReturn(ctx context.Context, tx *gorm.DB, input RequestInput) (*models.Return, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction required")
	}
	contents := strings.TrimSpace(input.Contents)
	if contents == "" {
		return nil, pkgerrors.InvalidArgument("return contents are required")
	}
	if len([]rune(contents)) > maxContentsLength {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "return contents exceed %d characters", maxContentsLength)
	}

	repo := e.repo.WithTx(tx)
	detail, err := repo.LockDetail(ctx, input.DetailID)
	if err != nil {
		return nil, notFoundOr(err, "order detail")
	}
	owner, err := e.directory.OrderOwner(ctx, tx, detail.OrderID)
	if err != nil {
		return nil, err
	}
	if owner != input.UserID {
		return nil, pkgerrors.NotFound("order detail")
	}
	if detail.State != enums.OrderDetailStateDeliveryComplete {
		return nil, pkgerrors.InvalidState("only delivered items can be returned").
			WithDetails(map[string]any{"state": detail.State})
	}

	open, err := repo.FindOpenByDetail(ctx, detail.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open return")
	}
	if open != nil {
		return nil, pkgerrors.InvalidState("a return is already open for this item")
	}

	ret := &models.Return{
		OrderDetailID: detail.ID,
		Contents:      contents,
		State:         enums.ReturnStateReturnRequest,
	}
	if err := repo.CreateReturn(ctx, ret); err != nil {
		if dbpkg.IsUniqueViolation(err, "") {
			return nil, pkgerrors.InvalidState("a return is already open for this item")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return")
	}
	if err := repo.UpdateDetailState(ctx, detail, enums.OrderDetailStateReturnRequest); err != nil {
		return nil, writeError(err, "order detail")
	}
	return ret, nil
}

func (e *engine) recipient(ctx context.Context, tx *gorm.DB, detail *models.OrderDetail) (uuid.UUID, string, error) {
	userID, err := e.directory.OrderOwner(ctx, tx, detail.OrderID)
	if err != nil {
		return uuid.Nil, "", err
	}
	productName, err := e.directory.ProductName(ctx, tx, detail.ProductID)
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, productName, nil
}

func notFoundOr(err error, entity string) error {
	if dbpkg.IsNotFound(err) {
		return pkgerrors.NotFound(entity)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}

func writeError(err error, entity string) error {
	if errors.Is(err, dbpkg.ErrStaleVersion) {
		return pkgerrors.Conflict(entity + " was updated concurrently")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update "+entity)
}
