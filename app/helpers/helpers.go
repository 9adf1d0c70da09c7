package helpers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const (
	ContextKeyUserID     contextKey = "userID"
	ContextKeyUser       contextKey = "userObject"
	ContextKeySessionKey contextKey = "sessionKey"
)

var ErrInvalidJSON = errors.New("invalid JSON body")

// NewValidator reports fields by their json names so error keys match the
// request payload.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMessages := make(map[string]string)
	for _, err := range errs {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errorMessages[field] = "This field is required."
		case "email":
			errorMessages[field] = "Enter a valid email address."
		case "numeric", "number":
			errorMessages[field] = "A valid number is required."
		case "min":
			if err.Kind() == reflect.String {
				errorMessages[field] = fmt.Sprintf("Ensure this field has at least %s characters.", err.Param())
			} else {
				errorMessages[field] = fmt.Sprintf("Ensure this value is greater than or equal to %s.", err.Param())
			}
		case "max":
			if err.Kind() == reflect.String {
				errorMessages[field] = fmt.Sprintf("Ensure this field has no more than %s characters.", err.Param())
			} else {
				errorMessages[field] = fmt.Sprintf("Ensure this value is less than or equal to %s.", err.Param())
			}
		case "oneof":
			errorMessages[field] = fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(err.Value()))
		case "eqfield":
			errorMessages[field] = "Passwords must match."
		default:
			errorMessages[field] = fmt.Sprintf("Validation %s failed.", err.Tag())
		}
	}
	return errorMessages
}

// ValidateStruct runs v over dto and returns field messages, or nil when
// the struct is valid.
func ValidateStruct(v *validator.Validate, dto interface{}) map[string]string {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return FormatValidationErrors(verrs)
	}
	return map[string]string{"non_field_errors": err.Error()}
}

// DecodeJSON reads a JSON request body into dst. An empty body leaves dst
// untouched.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	zap.L().Debug("DecodeJSON: bad request body", zap.String("path", r.URL.Path), zap.Error(err))
	return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
}

func PasswordCompare(hashPass string, password []byte) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashPass), password)
	return err == nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(bytes), nil
}

func GenerateSlug(s string) string {
	return slug.Make(s)
}
