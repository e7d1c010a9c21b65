package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Email reports whether s is a syntactically valid email address.
func Email(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && validate.Var(s, "required,email") == nil
}

// Struct validates v using its `validate` tags.
func Struct(v interface{}) error {
	return validate.Struct(v)
}
