package pkg

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/iancoleman/strcase"
	"gopkg.in/go-playground/validator.v9"
	entranslations "gopkg.in/go-playground/validator.v9/translations/en"
)

// newValidator builds the struct validator used at the submission boundary,
// with json tag names, english translations and the ledger format rules
// registered as custom validations.
func newValidator() (*validator.Validate, ut.Translator) {
	locale := en.New()
	uni := ut.New(locale, locale)

	trans, _ := uni.GetTranslator("en")

	v := validator.New()

	_ = entranslations.RegisterDefaultTranslations(v, trans)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})

	_ = v.RegisterValidation("ledger_address", func(fl validator.FieldLevel) bool {
		return IsValidAddress(fl.Field().String())
	})

	_ = v.RegisterValidation("command_source", func(fl validator.FieldLevel) bool {
		return IsValidSource(fl.Field().String())
	})

	_ = v.RegisterValidation("source_idempk", func(fl validator.FieldLevel) bool {
		return IsValidSourceIdemPK(fl.Field().String())
	})

	_ = v.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
		return IsValidCurrency(fl.Field().String())
	})

	return v, trans
}

// ValidatePayloadStruct runs tag validation over a payload struct and folds
// the failures into a ValidationKnownFieldsError keyed by snake_case field
// name, in the shape synchronous callers receive.
func ValidatePayloadStruct(s any, entityType string) error {
	v, trans := newValidator()

	k := reflect.ValueOf(s).Kind()
	if k == reflect.Ptr {
		k = reflect.ValueOf(s).Elem().Kind()
	}

	if k != reflect.Struct {
		return nil
	}

	err := v.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	invalidFields := make(FieldValidations)

	for _, fieldError := range validationErrors {
		invalidFields[strcase.ToSnake(fieldError.Field())] = fieldError.Translate(trans)
	}

	return ValidationKnownFieldsError{
		EntityType: entityType,
		Code:       "0400",
		Title:      "Bad Request",
		Message:    "The command payload contains invalid fields. Correct the listed fields and resubmit.",
		Fields:     invalidFields,
	}
}
