package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/userhub/backend/internal/service"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json name so the
// messages match what the client sent.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindJSON decodes and validates the body. On failure it writes a 400 listing
// every violated field and returns false.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return &service.ValidationError{Messages: msgs}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return &service.ValidationError{Messages: []string{"request body is required"}}
	case errors.As(err, &typeErr):
		return &service.ValidationError{Messages: []string{fmt.Sprintf("%s has the wrong type", typeErr.Field)}}
	case errors.As(err, &syntaxErr):
		return &service.ValidationError{Messages: []string{"request body must be valid JSON"}}
	default:
		return &service.ValidationError{Messages: []string{"invalid request"}}
	}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "uuid":
		return field + " must be a valid UUID"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
