package validator

import (
	stdErrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/johnquangdev/meeting-segmenter/errors"
)

// CustomValidator implements echo.Validator using go-playground/validator
type CustomValidator struct {
	v *validator.Validate
}

// New creates a new CustomValidator instance. Field errors are reported by
// their json or query name.
func New() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(fieldName)
	// agenda labels are line-oriented
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return &CustomValidator{v: v}
}

// Validate performs struct validation and returns an INVALID_ARGUMENT
// AppError with one detail per failing field
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stdErrors.As(err, &fieldErrs) {
		return errors.ErrInvalidArgument(err.Error())
	}

	appErr := errors.ErrInvalidArgument("validation failed")
	for _, fe := range fieldErrs {
		// drop the struct name, keep the field path
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		appErr = appErr.WithDetail(field, describe(fe))
	}
	return appErr
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "singleline":
		return "must be a single line"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min", "max":
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "query"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}
