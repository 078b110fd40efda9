// Package users resolves who a workflow change should be reported to.
package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/repo"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/models"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

// Directory answers the read-only lookups a command needs to address a
// notification. Every method reads through tx when one is given.
type Directory interface {
	User(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.User, error)
	OrderOwner(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (uuid.UUID, error)
	ProductName(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (string, error)
}

type directory struct {
	repo.Base
}

func NewDirectory(db *gorm.DB) Directory {
	return &directory{Base: repo.NewBase(db)}
}

func (d *directory) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	return d.Base.WithTx(tx).DB(ctx)
}

func (d *directory) User(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := d.conn(ctx, tx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, lookupError(err, "user")
	}
	return &user, nil
}

func (d *directory) OrderOwner(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (uuid.UUID, error) {
	var order models.Order
	if err := d.conn(ctx, tx).Select("id", "user_id").Where("id = ?", orderID).First(&order).Error; err != nil {
		return uuid.Nil, lookupError(err, "order")
	}
	return order.UserID, nil
}

func (d *directory) ProductName(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (string, error) {
	var product models.Product
	if err := d.conn(ctx, tx).Select("id", "name").Where("id = ?", productID).First(&product).Error; err != nil {
		return "", lookupError(err, "product")
	}
	return product.Name, nil
}

func lookupError(err error, entity string) error {
	if dbpkg.IsNotFound(err) {
		return pkgerrors.NotFound(entity)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
