package service

import (
	"context"
	"testing"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShipmentLifecyclePostsStock(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	item, err := svc.Warehouse.Create(ctx, &WarehouseItemRequest{
		Name:     "Кухонный модуль",
		Quantity: decimal.NewFromInt(10),
		MinStock: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	shipment, err := svc.Shipment.Create(ctx, &CreateShipmentRequest{
		Address: "ул. Ленина, 1",
		Lines:   []ShipmentLineRequest{{WarehouseItemID: item.ID, Quantity: decimal.NewFromInt(6)}},
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "SHP-2025-0001", shipment.Number)
	assert.Equal(t, entity.ShipmentPending, shipment.Status)

	_, err = svc.Shipment.UpdateStatus(ctx, shipment.ID, entity.ShipmentDelivered, "u1")
	assert.ErrorIs(t, err, ErrValidation, "pending cannot skip to delivered")

	_, err = svc.Shipment.UpdateStatus(ctx, shipment.ID, entity.ShipmentPacked, "u1")
	require.NoError(t, err)

	shipped, err := svc.Shipment.UpdateStatus(ctx, shipment.ID, entity.ShipmentShipped, "u1")
	require.NoError(t, err)
	assert.NotNil(t, shipped.ShippedAt)

	got, err := svc.Warehouse.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, entity.StockLow, got.Status)

	txs, _, err := svc.Warehouse.ListTransactions(ctx, item.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, entity.TxOut, txs[0].Type)
	assert.Equal(t, entity.EntityShipment, txs[0].ReferenceType)
	assert.Equal(t, shipment.ID, txs[0].ReferenceID)

	delivered, err := svc.Shipment.UpdateStatus(ctx, shipment.ID, entity.ShipmentDelivered, "u1")
	require.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = svc.Shipment.UpdateStatus(ctx, shipment.ID, entity.ShipmentCancelled, "u1")
	assert.ErrorIs(t, err, ErrValidation, "delivered is terminal")

	logs, total, err := svc.Activity.List(ctx, entity.EntityShipment, shipment.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, logs, 3)
}

func TestShipmentCancelDoesNotTouchStock(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	item, err := svc.Warehouse.Create(ctx, &WarehouseItemRequest{Name: "Стол", Quantity: decimal.NewFromInt(3)})
	require.NoError(t, err)
	shipment, err := svc.Shipment.Create(ctx, &CreateShipmentRequest{
		Lines: []ShipmentLineRequest{{WarehouseItemID: item.ID, Quantity: decimal.NewFromInt(1)}},
	}, "u1")
	require.NoError(t, err)

	cancelled, err := svc.Shipment.UpdateStatus(ctx, shipment.ID, entity.ShipmentCancelled, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.ShipmentCancelled, cancelled.Status)

	got, err := svc.Warehouse.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(3)))
}

func TestShipmentCreateValidatesLines(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Shipment.Create(ctx, &CreateShipmentRequest{}, "u1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Shipment.Create(ctx, &CreateShipmentRequest{
		Lines: []ShipmentLineRequest{{WarehouseItemID: "missing", Quantity: decimal.NewFromInt(1)}},
	}, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
