package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

const invalidInputMessage = "Invalid inputs passed, please check your data."

// BindJSON binds and validates a JSON body. On failure it answers 422
// itself and returns false.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		respondBindError(ctx, err, out, "json")

		return false
	}

	return true
}

// BindForm is the multipart/form variant used by the upload routes.
func BindForm(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBind(out)

	if err != nil {
		respondBindError(ctx, err, out, "form")

		return false
	}

	return true
}

func respondBindError(ctx *gin.Context, err error, out interface{}, tagName string) {
	ctx.JSON(422, gin.H{
		"message": invalidInputMessage,
		"details": parseBindError(err, out, tagName),
	})
}

func parseBindError(err error, out interface{}, tagName string) interface{} {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			field := wireFieldName(rootType, fieldError.StructField(), tagName)
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   field,
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return gin.H{"fields": fields}
	}

	// in the event of bad json; truncated or empty bodies surface as
	// plain EOF errors rather than a *json.SyntaxError

	var syntaxError *json.SyntaxError

	if errors.As(err, &syntaxError) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return gin.H{
			"json": "invalid_json_syntax",
		}
	}

	// in the event of a type mismatch

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		return gin.H{
			"json":  "invalid_json_type",
			"field": unmatchedTypeError.Field,
		}
	}

	// final fallback if the error could not be deciphered
	return gin.H{"reason": "invalid request body"}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// wireFieldName maps a struct field back to its json/form tag so the
// client sees the name it sent.
func wireFieldName(rootType reflect.Type, structField, tagName string) string {
	if rootType == nil {
		return structField
	}

	sf, ok := rootType.FieldByName(structField)

	if !ok {
		return structField
	}

	tag := sf.Tag.Get(tagName)
	if tag == "" {
		return structField
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return structField
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
