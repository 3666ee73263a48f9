// Package apierror escribe el sobre de error común de las respuestas 4xx/5xx.
// Usa la misma forma que el API remoto ({"error": "..."}) para que un cliente
// pueda tratar ambos igual.
package apierror

import (
	"encoding/json"
	"errors"
	"net/http"

	"ganado360/internal/platform/httpclient"
	"ganado360/internal/platform/validation"
)

type APIError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`

	// Presentes cuando falla un registro de varios pasos. Kind dice si quedó
	// algo creado: "nothing_created" o "incomplete" (requiere reanudar).
	Kind     string `json:"kind,omitempty"`
	SagaID   string `json:"sagaId,omitempty"`
	AnimalID string `json:"animalId,omitempty"`
}

const (
	KindNothingCreated = "nothing_created"
	KindIncomplete     = "incomplete"
)

func New(msg string) *APIError {
	return &APIError{Error: msg}
}

func Write(w http.ResponseWriter, status int, body *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteMsg(w http.ResponseWriter, status int, msg string) {
	Write(w, status, New(msg))
}

// WriteUpstream traduce errores comunes (validación, upstream) a una respuesta.
// Devuelve false si no supo clasificar el error (el caller decide).
func WriteUpstream(w http.ResponseWriter, err error) bool {
	status, body, ok := Classify(err)
	if ok {
		Write(w, status, body)
	}
	return ok
}

// Classify es WriteUpstream sin escribir: el caller puede completar el sobre.
func Classify(err error) (int, *APIError, bool) {
	var ve *validation.Error
	if errors.As(err, &ve) {
		return http.StatusUnprocessableEntity, &APIError{Error: "validation failed", Fields: ve.Fields}, true
	}
	if httpclient.IsUnauthorized(err) {
		return http.StatusUnauthorized, New("unauthorized"), true
	}
	if httpclient.IsNotFound(err) {
		return http.StatusNotFound, New("not found"), true
	}
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		// 4xx del remoto se reenvían tal cual; 5xx => 502.
		status := http.StatusBadGateway
		if he.StatusCode >= 400 && he.StatusCode < 500 {
			status = he.StatusCode
		}
		return status, New(he.Message), true
	}
	return 0, nil, false
}

// WriteError es WriteUpstream con fallback a 500.
func WriteError(w http.ResponseWriter, err error) {
	if WriteUpstream(w, err) {
		return
	}
	WriteMsg(w, http.StatusInternalServerError, "internal error")
}

// WriteJSON escribe una respuesta exitosa.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
