package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go-order-service/src/controllers/models"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	validate := validator.New()

	// Field names in messages follow the JSON body.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	validate.RegisterStructValidation(validateOrderItem, models.OrderItemRequest{})

	return validate
}

// validateOrderItem checks the unit price sign on the decimal itself so that amounts too
// small for a float64 are not rounded to zero.
func validateOrderItem(sl validator.StructLevel) {
	item := sl.Current().Interface().(models.OrderItemRequest)
	if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
		sl.ReportError(item.UnitPrice, "unit_price", "UnitPrice", "gte", "0")
	}
}

func validationDetails(err error) []string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return []string{err.Error()}
	}

	details := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			details = append(details, fmt.Sprintf("%s is required", field))
		case "gt":
			details = append(details, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "gte":
			details = append(details, fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param()))
		default:
			details = append(details, fmt.Sprintf("%s failed on the '%s' rule", field, fe.Tag()))
		}
	}
	return details
}
