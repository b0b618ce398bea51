package service

import (
	"context"
	"testing"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarehouseTransactionsRecomputeStatus(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	item, err := svc.Warehouse.Create(ctx, &WarehouseItemRequest{
		Name:     "ЛДСП белый",
		Quantity: decimal.NewFromInt(100),
		MinStock: decimal.NewFromInt(50),
		Unit:     "лист",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StockNormal, item.Status)

	_, err = svc.Warehouse.ApplyTransaction(ctx, item.ID, &TransactionRequest{Type: entity.TxIn, Quantity: decimal.NewFromInt(50)}, "u1")
	require.NoError(t, err)
	got, err := svc.Warehouse.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, entity.StockNormal, got.Status)

	tx, err := svc.Warehouse.ApplyTransaction(ctx, item.ID, &TransactionRequest{Type: entity.TxOut, Quantity: decimal.NewFromInt(130), Notes: "в цех"}, "u1")
	require.NoError(t, err)
	assert.Equal(t, entity.TxOut, tx.Type)
	got, err = svc.Warehouse.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, entity.StockLow, got.Status)

	txs, total, err := svc.Warehouse.ListTransactions(ctx, item.ID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, txs, 2)
}

func TestWarehouseOutHasNoFloor(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	item, err := svc.Warehouse.Create(ctx, &WarehouseItemRequest{
		Name:     "Петля",
		Quantity: decimal.NewFromInt(5),
		MinStock: decimal.NewFromInt(2),
	})
	require.NoError(t, err)

	_, err = svc.Warehouse.ApplyTransaction(ctx, item.ID, &TransactionRequest{Type: entity.TxOut, Quantity: decimal.NewFromInt(8)}, "u1")
	require.NoError(t, err)
	got, err := svc.Warehouse.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(decimal.NewFromInt(-3)), "quantity=%s", got.Quantity)
	assert.Equal(t, entity.StockLow, got.Status)

	_, err = svc.Warehouse.ApplyTransaction(ctx, item.ID, &TransactionRequest{Type: entity.TxIn, Quantity: decimal.NewFromInt(3)}, "u1")
	require.NoError(t, err)
	got, err = svc.Warehouse.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.IsZero())
	assert.Equal(t, entity.StockCritical, got.Status)
}

func TestWarehouseApplyTransactionErrors(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	_, err := svc.Warehouse.ApplyTransaction(ctx, "missing", &TransactionRequest{Type: entity.TxIn, Quantity: decimal.NewFromInt(1)}, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	item, err := svc.Warehouse.Create(ctx, &WarehouseItemRequest{Name: "Кромка", Quantity: decimal.NewFromInt(10)})
	require.NoError(t, err)

	_, err = svc.Warehouse.ApplyTransaction(ctx, item.ID, &TransactionRequest{Type: "move", Quantity: decimal.NewFromInt(1)}, "u1")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Warehouse.ApplyTransaction(ctx, item.ID, &TransactionRequest{Type: entity.TxIn, Quantity: decimal.Zero}, "u1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWarehouseRecomputeWritesOnlyOnChange(t *testing.T) {
	svc, db := newTestServices(t)
	ctx := context.Background()

	item, err := svc.Warehouse.Create(ctx, &WarehouseItemRequest{
		Name:     "Фасад",
		Quantity: decimal.NewFromInt(10),
		MinStock: decimal.NewFromInt(3),
	})
	require.NoError(t, err)

	changed, err := svc.Warehouse.RecomputeStatus(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	// 绕过服务直接改数量，模拟外部写入
	require.NoError(t, db.Model(&entity.WarehouseItem{}).Where("id = ?", item.ID).Update("quantity", decimal.Zero).Error)
	changed, err = svc.Warehouse.RecomputeStatus(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := svc.Warehouse.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StockCritical, got.Status)

	n, err := svc.Warehouse.RecomputeAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWarehouseCreateDerivesStatus(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	item, err := svc.Warehouse.Create(ctx, &WarehouseItemRequest{
		Name:     "Ручка",
		Quantity: decimal.NewFromInt(4),
		MinStock: decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StockLow, item.Status)

	updated, err := svc.Warehouse.Update(ctx, item.ID, &WarehouseItemRequest{
		Name:     "Ручка",
		Quantity: decimal.NewFromInt(40),
		MinStock: decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.StockNormal, updated.Status)

	_, err = svc.Warehouse.Create(ctx, &WarehouseItemRequest{Name: "X", MinStock: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)
}
