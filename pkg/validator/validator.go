package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/andressep95/realty-core/internal/domain"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9(][0-9 ()\-.]{5,24}$`)

// FieldError is one failed rule, keyed by the JSON field name
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is returned by Validate when a request breaks one or more rules
type Errors []FieldError

func (e Errors) Error() string {
	messages := make([]string, len(e))
	for i, fe := range e {
		messages[i] = fe.Message
	}
	return strings.Join(messages, "; ")
}

// Fields maps each field to its first message
func (e Errors) Fields() map[string]string {
	out := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := out[fe.Field]; !ok {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(fld.Name)
		}
		return name
	})

	// Registration only fails on an empty tag or nil func
	_ = v.RegisterValidation("listing_status", func(fl validator.FieldLevel) bool {
		return domain.ListingStatus(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("account_type", func(fl validator.FieldLevel) bool {
		return domain.AccountType(fl.Field().String()).IsValid()
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &Validator{
		validate: v,
	}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return toErrors(validationErrs)
		}
		return err
	}
	return nil
}

func toErrors(errs validator.ValidationErrors) Errors {
	out := make(Errors, 0, len(errs))
	for _, err := range errs {
		field := err.Field()
		out = append(out, FieldError{Field: field, Message: message(field, err)})
	}
	return out
}

func message(field string, err validator.FieldError) string {
	switch err.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, err.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, err.Param())
	case "listing_status":
		return fmt.Sprintf("%s must be one of active, pending, sold, withdrawn", field)
	case "account_type":
		return fmt.Sprintf("%s must be one of customer, individual_broker, corporate_company, platform_admin", field)
	case "phone":
		return fmt.Sprintf("%s must be a phone number", field)
	case "uuid":
		return fmt.Sprintf("%s must be a valid UUID", field)
	}
	return fmt.Sprintf("%s failed validation for %s", field, err.Tag())
}
