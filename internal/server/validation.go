package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// errUnsupportedMediaType is returned by decode for bodies not sent as application/json.
var errUnsupportedMediaType = errors.New("unsupported media type")

// normalizer is implemented by request bodies that canonicalize fields
// before validation.
type normalizer interface {
	normalize()
}

// Details describes why a request body was rejected: errors about the body
// as a whole, and errors per field path.
type Details struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

// ValidationError is returned when a request body cannot be decoded or fails validation.
type ValidationError struct {
	Details Details
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %d form errors, %d field errors", len(e.Details.FormErrors), len(e.Details.FieldErrors))
}

func newValidationError() *ValidationError {
	return &ValidationError{Details: Details{FormErrors: []string{}, FieldErrors: map[string][]string{}}}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("notblank", validators.NotBlank)

	return v
}

// decode reads a JSON body into dst and validates it.
// Failures are returned as *ValidationError, or errUnsupportedMediaType when
// the Content-Type is not application/json.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errUnsupportedMediaType
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(dst); err != nil {
		verr := newValidationError()
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field != "":
			verr.Details.FieldErrors[typeErr.Field] = []string{"Type invalide"}
		case errors.Is(err, io.EOF):
			verr.Details.FormErrors = append(verr.Details.FormErrors, "Corps de requête vide")
		default:
			verr.Details.FormErrors = append(verr.Details.FormErrors, msgInvalidJSON)
		}
		return verr
	}

	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	if err := s.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("failed to validate request: %w", err)
		}

		verr := newValidationError()
		for _, fe := range fieldErrs {
			path := fieldPath(fe.Namespace())
			verr.Details.FieldErrors[path] = append(verr.Details.FieldErrors[path], fieldMessage(fe))
		}
		return verr
	}

	return nil
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Champ requis"
	case "notblank":
		return "Une requête est nécessaire"
	case "uuid":
		return "UUID invalide"
	case "oneof":
		return fmt.Sprintf("Valeur attendue parmi : %s", fe.Param())
	case "datetime":
		return "Date ISO 8601 invalide"
	default:
		return fmt.Sprintf("Valeur invalide (%s)", fe.Tag())
	}
}
