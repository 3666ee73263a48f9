// Package dates normaliza las fechas que llegan como texto: el API remoto y
// los formularios mezclan "YYYY-MM-DD" y RFC3339.
package dates

import (
	"fmt"
	"strings"
	"time"
)

const Day = "2006-01-02"

// Instantes sin zona, como los serializa el API para columnas timestamp.
// Se interpretan en UTC; la fracción de segundos es opcional al parsear.
const localInstant = "2006-01-02T15:04:05"

// Parse acepta "YYYY-MM-DD" (medianoche UTC), RFC3339 o
// "YYYY-MM-DDTHH:MM:SS[.fff]" sin zona (UTC).
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(Day, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(localInstant, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("fecha inválida %q: se espera YYYY-MM-DD o RFC3339", s)
}

// Format devuelve "" para la fecha cero.
func Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Day)
}

// FormatInstant conserva la hora (RFC3339 en UTC); "" para la fecha cero.
func FormatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
