package campaign

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// FieldError is a single failed rule, keyed by the JSON field name so it
// lines up with field errors reported by the backend.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every rule a form value failed before submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Message returns the message for field, or "" if the field passed.
func (e *ValidationError) Message(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := v.RegisterValidation("minbid", func(fl validator.FieldLevel) bool {
			return fl.Field().Float() >= MinBid
		}); err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

// Validate checks a draft before it is sent to the backend. balance is the
// seller's available balance when known; nil skips the funding check (the
// backend owns it for edits).
func Validate(d Draft, balance *float64) error {
	d.Name = strings.TrimSpace(d.Name)
	d.City = strings.TrimSpace(d.City)

	var fields []FieldError
	fields = append(fields, structErrors(d)...)

	if balance != nil && d.Fund > 0 && d.Fund > *balance {
		fields = append(fields, FieldError{
			Field: "fund",
			Message: fmt.Sprintf("fund %.2f exceeds available balance %.2f by %.2f",
				d.Fund, *balance, d.Fund-*balance),
		})
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

// ValidateRegistration checks the register form.
func ValidateRegistration(r Registration) error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if fields := structErrors(r); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ValidateAmount checks an add-funds amount.
func ValidateAmount(amount float64) error {
	if amount <= MinAmount {
		return &ValidationError{Fields: []FieldError{{
			Field:   "amount",
			Message: fmt.Sprintf("must be greater than %.2f", MinAmount),
		}}}
	}
	return nil
}

func structErrors(v any) []FieldError {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "form", Message: err.Error()}}
	}
	fields := make([]FieldError, 0, len(verrs))
	seen := make(map[string]bool)
	for _, fe := range verrs {
		name := fieldName(fe)
		if seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, FieldError{Field: name, Message: ruleMessage(name, fe)})
	}
	return fields
}

// fieldName strips dive indices ("keywordsNames[0]") back to the field.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func ruleMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if field == "keywordsNames" {
			return "keywords must not be blank"
		}
		return "is required"
	case "min":
		if field == "keywordsNames" {
			return "select at least one keyword"
		}
		return "must be at least " + fe.Param()
	case "minbid":
		return fmt.Sprintf("must be at least %.2f", MinBid)
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must not be negative"
	case "email":
		return "must be a valid email address"
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func formatRadius(r float64) string {
	if r == float64(int64(r)) {
		return strconv.FormatInt(int64(r), 10) + " km"
	}
	return strconv.FormatFloat(r, 'f', 1, 64) + " km"
}
