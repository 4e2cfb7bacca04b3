package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxBodyBytes bounds request bodies read by the JSON decoder.
const maxBodyBytes = 1 << 20

// validatorSet wraps a validator that reports fields by their JSON names.
type validatorSet struct {
	v *validator.Validate
}

func newValidatorSet() *validatorSet {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &validatorSet{v: v}
}

// ValidationError describes a request body that could not be turned into a valid payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// decodeJSON reads the request body into dst and validates it.
// Every failure is returned as a ValidationError.
func (vs *validatorSet) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr):
			return ValidationError{Field: typeErr.Field, Message: "expected " + typeErr.Type.String()}
		case errors.Is(err, io.EOF):
			return ValidationError{Message: "request body is required"}
		default:
			return ValidationError{Message: "invalid JSON body"}
		}
	}

	if err := vs.v.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError{Field: fe.Field(), Message: "field " + fe.Tag()}
		}
		return ValidationError{Message: err.Error()}
	}

	return nil
}
