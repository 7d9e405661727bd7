package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom rules and makes validation errors
// report JSON field names. It is safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
}

// fieldError is a validation failure on one request field.
type fieldError struct {
	field   string
	message string
}

func (e *fieldError) Error() string {
	return e.message
}

// validationMessage turns a binding error into a client-facing message
// naming the offending field. ok is false when err is not a validation error.
func validationMessage(err error) (msg string, ok bool) {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.message, true
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return describe(verrs[0]), true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s should be a valid %s", capitalize(typeErr.Field), kindName(typeErr.Type.Kind())), true
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		err.Error() == "invalid request" {
		return "Invalid JSON body", true
	}
	return "", false
}

func kindName(k reflect.Kind) string {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.String:
		return "string"
	default:
		return k.String()
	}
}

func describe(fe validator.FieldError) string {
	field := capitalize(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " field required"
	case "notblank":
		return capitalize(strings.ReplaceAll(fe.Field(), "_", " ")) + " cannot be empty"
	case "email":
		return field + " is not a valid email address"
	case "max":
		return fmt.Sprintf("%s should have at most %s characters", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s should have at least %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s should be greater than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
