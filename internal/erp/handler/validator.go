package handler

import (
	"reflect"
	"sync"

	"github.com/NX-company/Emerald-ERP--sub000/internal/erp/entity"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var registerOnce sync.Once

// RegisterValidators 在 gin 的校验引擎上注册业务校验标签
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// decimal.Decimal 按字符串校验，decimal_positive 才能拿到值
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.String()
			}
			return nil
		}, decimal.Decimal{})

		v.RegisterValidation("stage_status", oneOf(entity.StatusPending, entity.StatusInProgress, entity.StatusCompleted))
		v.RegisterValidation("tx_type", oneOf(entity.TxIn, entity.TxOut))
		v.RegisterValidation("deal_stage", oneOf(entity.DealStages...))
		v.RegisterValidation("document_type", oneOf(entity.DocTypeQuote, entity.DocTypeInvoice, entity.DocTypeContract))
		v.RegisterValidation("decimal_positive", decimalPositive)
	})
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, v := range values {
			if s == v {
				return true
			}
		}
		return false
	}
}

func decimalPositive(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive()
}
