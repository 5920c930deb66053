package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/dmitrijs2005/recipeapi/internal/common"
	"github.com/dmitrijs2005/recipeapi/internal/server/models"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	msgRequired       = "This field is required."
	msgNotFound       = "Not found."
	msgServerError    = "A server error occurred."
	msgNoCredentials  = "Authentication credentials were not provided."
	msgInvalidToken   = "Invalid token."
	msgExpiredToken   = "Token has expired."
	msgInactiveUser   = "User inactive or deleted."
	msgEmailTaken     = "user with this email already exists."
	msgBadCredentials = "Unable to authenticate with provided credentials."
)

// fieldErrors is the 400 body: field name to messages.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json names.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindErrors translates a gin binding error into a 400 body.
func bindErrors(err error) any {
	var (
		verrs   validator.ValidationErrors
		typeErr *json.UnmarshalTypeError
		synErr  *json.SyntaxError
	)

	switch {
	case errors.As(err, &verrs):
		out := fieldErrors{}
		for _, fe := range verrs {
			out.add(fe.Field(), validationMessage(fe))
		}
		return out
	case errors.Is(err, models.ErrInvalidPrice):
		return fieldErrors{"price": {"A valid number is required."}}
	case errors.As(err, &typeErr):
		return fieldErrors{typeErr.Field: {typeMessage(typeErr.Type)}}
	case errors.As(err, &synErr), errors.Is(err, io.ErrUnexpectedEOF):
		return gin.H{"detail": "JSON parse error - " + err.Error()}
	case errors.Is(err, io.EOF):
		return gin.H{"detail": "Request body is empty."}
	default:
		return gin.H{"detail": err.Error()}
	}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "gte":
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lte":
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

func typeMessage(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "A valid integer is required."
	case reflect.String:
		return "Not a valid string."
	case reflect.Slice:
		return "Expected a list of items."
	default:
		return "Incorrect type."
	}
}

// writeError maps service errors onto HTTP responses. Anything unknown is
// logged and reported as 500 without details.
func (s *HTTPServer) writeError(c *gin.Context, err error) {
	var verr *common.ValidationError

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, fieldErrors{verr.Field: {verr.Message}})
	case errors.Is(err, common.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, fieldErrors{"non_field_errors": {msgBadCredentials}})
	case errors.Is(err, common.ErrTokenExpired), errors.Is(err, common.ErrRefreshTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": msgExpiredToken})
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"detail": msgInvalidToken})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": msgNotFound})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": msgServerError})
	}
}
