package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/erp/orderflow/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagIdempotencyKey accepts a replay key of visible ASCII characters.
// Surrounding whitespace is ignored since handlers trim the key.
const TagIdempotencyKey = "idempotency_key"

var setupOnce sync.Once

// SetupValidator configures gin's validator engine: errors report the json
// or uri name of a field and the idempotency_key tag is registered.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation(TagIdempotencyKey, validIdempotencyKey)
	})
}

func fieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "uri"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return fld.Name
}

func validIdempotencyKey(fl validator.FieldLevel) bool {
	key := strings.TrimSpace(fl.Field().String())
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] > '~' {
			return false
		}
	}
	return true
}

var fieldMessages = map[string]func(validator.FieldError) string{
	"required": func(validator.FieldError) string { return "This field is required" },
	"uuid":     func(validator.FieldError) string { return "Invalid UUID format" },
	"oneof":    func(e validator.FieldError) string { return "Must be one of: " + e.Param() },
	"max": func(e validator.FieldError) string {
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	},
	TagIdempotencyKey: func(validator.FieldError) string {
		return "Must contain only visible ASCII characters"
	},
}

// FormatValidationErrors turns binding errors into a validation response.
// Errors that are not field errors, such as malformed JSON, carry no details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewValidationErrorResponse("Request validation failed", requestID, nil)
	}

	details := make([]dto.ValidationDetail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg := "Invalid value"
		if describe, ok := fieldMessages[fe.Tag()]; ok {
			msg = describe(fe)
		}
		details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: msg})
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError aborts the request with a 400 validation response,
// or 413 when the body ran past the BodyLimit cap.
func HandleValidationError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	if isBodyTooLarge(err) {
		abortTooLarge(c)
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}
