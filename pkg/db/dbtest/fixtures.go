package dbtest

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
)

// Purchase is one seeded order line with its owner and product.
type Purchase struct {
	User    models.User
	Product models.Product
	Order   models.Order
	Detail  models.OrderDetail
}

func SeedUser(t *testing.T, conn *gorm.DB, name string) models.User {
	t.Helper()
	user := models.User{Email: uuid.NewString() + "@dmarket.test", Name: name}
	require.NoError(t, conn.Create(&user).Error)
	return user
}

// SeedPurchase creates a user, product, order and one detail in state.
func SeedPurchase(t *testing.T, conn *gorm.DB, productName string, salePrice int64, state enums.OrderDetailState) Purchase {
	t.Helper()
	user := SeedUser(t, conn, "구매자")
	product := models.Product{Brand: "DKT", Name: productName, Price: salePrice}
	require.NoError(t, conn.Create(&product).Error)
	order := models.Order{UserID: user.ID}
	require.NoError(t, conn.Create(&order).Error)
	detail := models.OrderDetail{
		OrderID:   order.ID,
		ProductID: product.ID,
		Count:     1,
		SalePrice: salePrice,
		State:     state,
	}
	require.NoError(t, conn.Create(&detail).Error)
	return Purchase{User: user, Product: product, Order: order, Detail: detail}
}

// SeedReturn opens a return for detailID in state.
func SeedReturn(t *testing.T, conn *gorm.DB, detailID uuid.UUID, state enums.ReturnState) models.Return {
	t.Helper()
	ret := models.Return{OrderDetailID: detailID, Contents: "사이즈가 맞지 않아요", State: state}
	require.NoError(t, conn.Create(&ret).Error)
	return ret
}
