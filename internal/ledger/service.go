package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Service records mileage balance changes. Append must be the only writer of
// users.mileage so the cached balance always equals the last entry.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.Mileage, error)
	CurrentBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	History(ctx context.Context, userID uuid.UUID, page pagination.Page) (pagination.Result[models.Mileage], error)
	Verify(ctx context.Context, userID uuid.UUID) error
}

// AppendInput is one signed balance change.
type AppendInput struct {
	UserID uuid.UUID
	Change int64
	Reason enums.MileageReason
}

type service struct {
	repo Repository
	tx   dbpkg.TxRunner
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, tx dbpkg.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// Append locks the user row, computes the new balance and writes the entry and
// the cached balance. When tx is nil a dedicated transaction is opened.
func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.Mileage, error) {
	if err := validateAppend(input); err != nil {
		return nil, err
	}
	if tx == nil {
		var entry *models.Mileage
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			entry, err = s.append(ctx, tx, input)
			return err
		})
		return entry, err
	}
	return s.append(ctx, tx, input)
}

func (s *service) append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.Mileage, error) {
	repo := s.repo.WithTx(tx)
	user, err := repo.LockUser(ctx, input.UserID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return nil, pkgerrors.NotFound("user")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock user balance")
	}

	balance := user.Mileage + input.Change
	if balance < 0 {
		return nil, pkgerrors.InvalidState("mileage balance cannot go negative").WithDetails(map[string]any{
			"balance": user.Mileage,
			"change":  input.Change,
		})
	}

	entry := &models.Mileage{
		UserID:        input.UserID,
		RemainMileage: balance,
		ChangeMileage: input.Change,
		Reason:        input.Reason,
	}
	if err := repo.Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert mileage entry")
	}
	if err := repo.SetBalance(ctx, input.UserID, balance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cached balance")
	}
	return entry, nil
}

func validateAppend(input AppendInput) error {
	if input.UserID == uuid.Nil {
		return pkgerrors.InvalidArgument("user id is required")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "invalid mileage reason %q", input.Reason)
	}
	if input.Reason.Credits() && input.Change < 0 {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "%s entries must not decrease the balance", input.Reason)
	}
	if input.Reason == enums.MileageReasonUse && input.Change > 0 {
		return pkgerrors.InvalidArgument("USE entries must not increase the balance")
	}
	return nil
}

// CurrentBalance returns the cached balance; a user without entries has 0.
func (s *service) CurrentBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if dbpkg.IsNotFound(err) {
			return 0, pkgerrors.NotFound("user")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user balance")
	}
	return user.Mileage, nil
}

func (s *service) History(ctx context.Context, userID uuid.UUID, page pagination.Page) (pagination.Result[models.Mileage], error) {
	rows, total, err := s.repo.ListByUser(ctx, userID, page)
	if err != nil {
		return pagination.Result[models.Mileage]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mileage history")
	}
	return pagination.NewResult(rows, page, total), nil
}

// Verify walks the full history and checks the running balance and the cached
// balance on the user row.
func (s *service) Verify(ctx context.Context, userID uuid.UUID) error {
	balance, err := s.CurrentBalance(ctx, userID)
	if err != nil {
		return err
	}
	entries, err := s.repo.ListChronological(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mileage history")
	}
	var running int64
	for i, entry := range entries {
		running += entry.ChangeMileage
		if entry.RemainMileage != running {
			return pkgerrors.Newf(pkgerrors.CodeInternal, "ledger entry %d records %d, expected %d", i, entry.RemainMileage, running)
		}
	}
	if running != balance {
		return pkgerrors.Newf(pkgerrors.CodeInternal, "cached balance %d differs from ledger sum %d", balance, running)
	}
	return nil
}
