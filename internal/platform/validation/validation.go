// Package validation agrupa las reglas de formulario que se verifican antes de
// disparar cualquier request: campos requeridos, enums, fechas y contraseñas.
package validation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordProblems(fl.Field().String()) == nil
	})
	_ = validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.After(Now())
	})
}

// Now es el reloj que usa la regla notfuture (reemplazable en tests).
var Now = time.Now

// ErrInvalid es el sentinel que envuelve todo *Error.
var ErrInvalid = errors.New("validation failed")

// Error describe los campos inválidos (campo -> regla incumplida).
type Error struct {
	Fields map[string]string
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Field crea un *Error de un solo campo.
func Field(name, rule string) *Error {
	return &Error{Fields: map[string]string{name: rule}}
}

// Struct corre las reglas `validate:"..."` del struct.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	fields := make(map[string]string, len(ves))
	for _, fe := range ves {
		fields[fe.Field()] = fe.Tag()
	}
	return &Error{Fields: fields}
}

// PasswordProblems devuelve las reglas incumplidas por la contraseña.
// Política: mínimo 8 caracteres, al menos una mayúscula, una minúscula y un dígito.
func PasswordProblems(pw string) []string {
	var (
		problems                     []string
		hasUpper, hasLower, hasDigit bool
	)
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if len([]rune(pw)) < 8 {
		problems = append(problems, "min_length")
	}
	if !hasUpper {
		problems = append(problems, "uppercase")
	}
	if !hasLower {
		problems = append(problems, "lowercase")
	}
	if !hasDigit {
		problems = append(problems, "digit")
	}
	return problems
}
