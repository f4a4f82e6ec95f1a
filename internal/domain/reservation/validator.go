package reservation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/go-playground/validator/v10"
)

// Field names reported in validation failures. They match the JSON names
// of the corresponding inputs.
const (
	FieldFirstName     = "first_name"
	FieldLastName      = "last_name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldMethod        = "method"
	FieldAccountNumber = "account_number"
	FieldCheckOut      = "check_out"
	FieldGuests        = "guests"
)

// FailureKind classifies why a field failed.
type FailureKind string

const (
	KindRequired      FailureKind = "required"
	KindInvalidEmail  FailureKind = "invalid_email"
	KindInvalidPhone  FailureKind = "invalid_phone"
	KindInvalidMethod FailureKind = "invalid_method"
	KindInvalidRange  FailureKind = "invalid_range"
)

// FieldFailure is one failed field.
type FieldFailure struct {
	Field string      `json:"field"`
	Kind  FailureKind `json:"kind"`
}

// ValidationResult holds every failure found in one pass. A result with no
// failures is valid.
type ValidationResult struct {
	Failures []FieldFailure `json:"failures,omitempty"`
}

// Valid reports whether no field failed.
func (r ValidationResult) Valid() bool { return len(r.Failures) == 0 }

// Fields returns the failures keyed by field name.
func (r ValidationResult) Fields() map[string]FailureKind {
	out := make(map[string]FailureKind, len(r.Failures))
	for _, f := range r.Failures {
		out[f.Field] = f.Kind
	}
	return out
}

// Err converts an invalid result into an *apperr.ValidationError.
func (r ValidationResult) Err(message string) error {
	if r.Valid() {
		return nil
	}
	fields := make(map[string]string, len(r.Failures))
	for _, f := range r.Failures {
		fields[f.Field] = string(f.Kind)
	}
	return apperr.NewFieldValidationError(message, fields)
}

// StepValidator checks the input of each workflow step.
type StepValidator interface {
	ValidateGuestStep(candidate GuestDetails) ValidationResult
	ValidatePaymentStep(candidate PaymentSelection) ValidationResult
}

// phonePattern accepts an optional leading + and at least ten digits,
// spaces or dashes.
var phonePattern = regexp.MustCompile(`^\+?[\d\s-]{10,}$`)

type guestForm struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
}

type paymentForm struct {
	Method        string `json:"method" validate:"required,oneof=card mobile_money"`
	AccountNumber string `json:"account_number" validate:"required_if=Method mobile_money"`
}

// Validator is the StepValidator backed by go-playground/validator.
// It is stateless and safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return &Validator{validate: v}
}

// ValidateGuestStep checks every guest field independently. Names must be
// non-blank after trimming.
func (v *Validator) ValidateGuestStep(candidate GuestDetails) ValidationResult {
	g := candidate.Normalized()
	return v.run(guestForm{
		FirstName: g.FirstName,
		LastName:  g.LastName,
		Email:     g.Email,
		Phone:     g.Phone,
	})
}

// ValidatePaymentStep requires a known method and, for mobile money, an
// account number.
func (v *Validator) ValidatePaymentStep(candidate PaymentSelection) ValidationResult {
	return v.run(paymentForm{
		Method:        string(candidate.Method),
		AccountNumber: strings.TrimSpace(candidate.AccountNumber),
	})
}

func (v *Validator) run(form interface{}) ValidationResult {
	err := v.validate.Struct(form)
	if err == nil {
		return ValidationResult{}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationResult{Failures: []FieldFailure{{Field: "form", Kind: KindRequired}}}
	}

	failures := make([]FieldFailure, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		failures = append(failures, FieldFailure{Field: fe.Field(), Kind: kindForTag(fe.Tag())})
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Field < failures[j].Field })
	return ValidationResult{Failures: failures}
}

func kindForTag(tag string) FailureKind {
	switch tag {
	case "email":
		return KindInvalidEmail
	case "phone":
		return KindInvalidPhone
	case "oneof":
		return KindInvalidMethod
	default:
		return KindRequired
	}
}
