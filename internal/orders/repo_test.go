package orders

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderportal-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderportal-backend/pkg/db/models"
	"github.com/angelmondragon/orderportal-backend/pkg/enums"
	"github.com/angelmondragon/orderportal-backend/pkg/types"
)

func TestRepositoryReadsBackCreatedOrder(t *testing.T) {
	client := dbtest.Open(t)
	repo := NewRepository(client.DB())
	ctx := context.Background()

	user := dbtest.SeedUser(t, client, "buyer@example.com", nil)
	product := dbtest.SeedProduct(t, client, "SKU-A", "10.50")
	delivery := types.DateOf(2024, time.March, 5)

	order := &models.Order{
		UserID:       user.ID,
		TotalAmount:  decimal.RequireFromString("21.00"),
		Subtotal:     decimal.RequireFromString("21.00"),
		DeliveryDate: &delivery,
		StatusID:     enums.OrderStatusOpen,
	}
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NotZero(t, order.ID)
	require.NoError(t, repo.CreateOrderDetails(ctx, []models.OrderDetail{
		{OrderID: order.ID, ProductID: product.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.50")},
	}))

	found, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusOpen, found.StatusID)
	assert.Equal(t, "Abierto", found.StatusName)
	require.NotNil(t, found.StatusColor)
	assert.Equal(t, "#2563eb", *found.StatusColor)
	require.Len(t, found.Details, 1)
	assert.Equal(t, 2, found.Details[0].Quantity)
	require.NotNil(t, found.DeliveryDate)
	assert.Equal(t, "2024-03-05", found.DeliveryDate.String())

	byUser, err := repo.ListByUser(ctx, user.ID, nil)
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, "Abierto", byUser[0].StatusName)

	open := enums.OrderStatusOpen
	byDate, err := repo.ListByDeliveryDate(ctx, DeliveryDateFilter{Date: delivery, Status: &open, UserID: &user.ID})
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, order.ID, byDate[0].ID)

	cancelled := enums.OrderStatusCancelled
	none, err := repo.ListByDeliveryDate(ctx, DeliveryDateFilter{Date: delivery, Status: &cancelled})
	require.NoError(t, err)
	assert.Empty(t, none)

	ok, err := repo.TransitionStatus(ctx, order.ID, enums.OrderStatusOpen, enums.OrderStatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)
	found, err = repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cancelado", found.StatusName)
}
