package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"finance-tracker/internal/linkflow"

	"github.com/go-playground/validator/v10"
)

// publicTokenPattern matches tokens handed out by the link widget, e.g. public-sandbox-<uuid>
var publicTokenPattern = regexp.MustCompile(`^public-(sandbox|development|production)-[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Validator wraps the go-playground validator with custom rules and error formatting
type Validator struct {
	validate *validator.Validate
}

// GetValidate returns the underlying validator.Validate instance for use with Echo
func (v *Validator) GetValidate() *validator.Validate {
	return v.validate
}

var (
	instance *Validator
	once     sync.Once
)

// GetValidator returns the shared validator instance
func GetValidator() *Validator {
	once.Do(func() {
		instance = NewValidator()
	})
	return instance
}

// NewValidator creates a new validator instance with custom rules and configuration
func NewValidator() *Validator {
	v := validator.New()

	_ = v.RegisterValidation("link_variant", validateLinkVariant)
	_ = v.RegisterValidation("public_token", validatePublicToken)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// validateLinkVariant accepts the presentation variants of the link control; empty means default
func validateLinkVariant(fl validator.FieldLevel) bool {
	_, err := linkflow.ParseVariant(fl.Field().String())
	return err == nil
}

// validatePublicToken accepts provider public tokens and the token the simulated flow hands back
func validatePublicToken(fl validator.FieldLevel) bool {
	token := fl.Field().String()
	return token == linkflow.DemoPublicToken || publicTokenPattern.MatchString(token)
}
