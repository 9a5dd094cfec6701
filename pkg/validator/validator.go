package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"colloquium/internal/model"
)

var global *validator.Validate

const (
	ErrInvalidStatus     = "Invalid status"
	ErrFieldRequired     = "Field is required"
	ErrUnknownValidation = "Unknown validation error"
)

// FieldError is returned by Validate for the first failing field.
type FieldError struct {
	Tag   string
	Field string
	Value any
	msg   string
}

func (e *FieldError) Error() string {
	return e.msg + ": " + e.Field
}

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("tribute_status", validateTributeStatus)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

// jsonName reports fields by their request key rather than the Go name.
func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validateTributeStatus(fl validator.FieldLevel) bool {
	return model.TributeStatus(fl.Field().String()).Valid()
}

func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "tribute_status":
		msg = ErrInvalidStatus
	case "required", "required_without":
		msg = ErrFieldRequired
	default:
		msg = ErrUnknownValidation
	}
	return &FieldError{Tag: ve.Tag(), Field: ve.Field(), Value: ve.Value(), msg: msg}
}
