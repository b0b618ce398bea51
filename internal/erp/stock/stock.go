// Package stock 库存数量与状态规则
package stock

import (
	"fmt"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/shopspring/decimal"
)

// DeriveStatus 数量为0时 critical，不高于最低库存时 low，否则 normal
func DeriveStatus(quantity, minStock decimal.Decimal) string {
	switch {
	case quantity.IsZero():
		return entity.StockCritical
	case quantity.LessThanOrEqual(minStock):
		return entity.StockLow
	default:
		return entity.StockNormal
	}
}

// Apply 按交易类型计算新数量。出库不做下限检查，数量可以为负。
func Apply(current decimal.Decimal, txType string, quantity decimal.Decimal) (decimal.Decimal, error) {
	switch txType {
	case entity.TxIn:
		return current.Add(quantity), nil
	case entity.TxOut:
		return current.Sub(quantity), nil
	default:
		return current, fmt.Errorf("unknown transaction type %q", txType)
	}
}
