package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	colorPattern    = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

	registerOnce sync.Once
)

// RegisterValidators installs the custom binding tags and reports fields by their JSON names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
				if name == "-" {
					return ""
				}
				if name != "" {
					return name
				}
			}
			return fld.Name
		})
		mustRegister(v, "slug", matches(slugPattern))
		mustRegister(v, "color", matches(colorPattern))
		mustRegister(v, "username", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return usernamePattern.MatchString(s) && !strings.EqualFold(s, "me")
		})
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validator: %v", tag, err))
	}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// bindJSON binds the body and writes a 400 on failure.
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, bindingErrors(err))
		return false
	}
	return true
}

// bindingErrors renders a binding failure as {field: [messages]}.
func bindingErrors(err error) gin.H {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := gin.H{}
		for _, fe := range verrs {
			field := fieldPath(fe)
			msgs, _ := out[field].([]string)
			out[field] = append(msgs, fieldMessage(fe))
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return gin.H{typeErr.Field: []string{fmt.Sprintf("expected %s", typeErr.Type)}}
	}
	if errors.Is(err, io.EOF) {
		return gin.H{"errors": "request body is empty"}
	}
	return gin.H{"errors": err.Error()}
}

// fieldPath drops the struct name from the validator namespace: ingredients[0].amount.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this field has at least %s elements.", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "slug":
		return "Enter a valid slug of letters, numbers, underscores or hyphens."
	case "color":
		return "Enter a color in #RRGGBB format."
	case "username":
		return "Enter a valid username."
	}
	return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
}
