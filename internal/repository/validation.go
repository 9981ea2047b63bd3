package repository

import (
	"errors"
	"reflect"
	"strings"

	"product-api/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report document paths (bson names) instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("bson"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func validateProduct(p *model.Product) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	verr := &ValidationError{Model: productModelName}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{Path: fe.Field(), Kind: fe.Tag()})
	}
	return verr
}
