package memory

import (
	"net/http"

	"ganado360/internal/platform/httpclient"
)

// Los repos in-memory fallan con la misma forma que el API remoto, así el modo
// dev responde los mismos códigos que producción.

func notFound(what string) error {
	return &httpclient.HTTPError{StatusCode: http.StatusNotFound, Message: what + " not found"}
}

func conflict(msg string) error {
	return &httpclient.HTTPError{StatusCode: http.StatusConflict, Message: msg}
}

func badRequest(msg string) error {
	return &httpclient.HTTPError{StatusCode: http.StatusBadRequest, Message: msg}
}
