package validator

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	validate *validator.Validate
	markup   = bluemonday.UGCPolicy()

	sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)
)

func Init() {
	validate = validator.New()

	registerCustomValidations(validate)

	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		registerCustomValidations(engine)
	}
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("session_id", validateSessionID)
}

func Validate(s interface{}) error {
	if validate == nil {
		Init()
	}
	return validate.Struct(s)
}

// SanitizeMarkup keeps basic formatting in operator-supplied HTML and drops
// scripts, handlers and unknown elements.
func SanitizeMarkup(s string) string {
	return strings.TrimSpace(markup.Sanitize(s))
}

func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func validateSessionID(fl validator.FieldLevel) bool {
	return ValidSessionID(fl.Field().String())
}
