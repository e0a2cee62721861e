package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		// decimal amounts are compared as floats by the gte/lte tags
		validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
	})
	return validate
}

// validateStruct runs the struct tag rules and flattens the failures into
// one error naming each offending field.
func validateStruct(v any) error {
	err := structValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidField, strings.Join(msgs, "; "))
}
