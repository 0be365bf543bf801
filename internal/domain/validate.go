package domain

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var pictureURLPattern = regexp.MustCompile(`^https?://.+`)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return pictureURLPattern.MatchString(fl.Field().String())
	})
}

// Rule precedence mirrors the book form: missing fields first, then the
// picture URL, then the price.
var rulePriority = map[string]int{
	"notblank": 0,
	"httpurl":  1,
	"gt":       2,
}

var ruleMessages = map[string]string{
	"notblank": "Please finish the form.",
	"httpurl":  "The picture should start with http:// or https://",
	"gt":       "Price should be greater than 0.",
}

// Validate checks a book before it is saved. It returns a *ValidationError
// for the highest-priority violated rule, or nil.
func Validate(b Book) error {
	err := validate.Struct(b)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Rule: "invalid", Message: err.Error()}
	}

	first := fieldErrs[0]
	for _, fe := range fieldErrs[1:] {
		if rulePriority[fe.Tag()] < rulePriority[first.Tag()] {
			first = fe
		}
	}

	msg, ok := ruleMessages[first.Tag()]
	if !ok {
		msg = first.Error()
	}
	return &ValidationError{Field: first.Field(), Rule: first.Tag(), Message: msg}
}
