package validation

import (
	"math"
	"reflect"
	"regexp"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/imrishuroy/go-storefront/internal/money"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// New returns a configured validator. Field names in errors are the JSON names.
//
// Custom tags:
//
//	phone10          exactly ten ASCII digits
//	finite_positive  a float that is > 0 and neither NaN nor infinite
//	payable          a float that converts to between 1 and money.MaxMinor paise
//	notblank         not empty after trimming whitespace
//
// decimal.Decimal fields validate as their float64 value.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})

	// registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	_ = v.RegisterValidation("phone10", func(fl validatorv10.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("finite_positive", func(fl validatorv10.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0) && f > 0
	}, true)
	_ = v.RegisterValidation("payable", func(fl validatorv10.FieldLevel) bool {
		return money.Payable(fl.Field().Float())
	}, true)

	return v
}

func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Message renders a field error for API clients.
func Message(fe validatorv10.FieldError) string {
	switch fe.Tag() {
	case "required", "required_without", "notblank":
		return "is required"
	case "phone10":
		return "must be a 10-digit number"
	case "finite_positive":
		return "must be a positive number"
	case "email":
		return "must be a valid email address"
	case "payable":
		return "must be between 0.01 and " + money.FromMinor(money.MaxMinor).StringFixed(2)
	case "gte":
		return "must be at least " + fe.Param()
	}
	return "is invalid"
}
