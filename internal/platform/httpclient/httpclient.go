package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ganado360/internal/platform/metrics"
	"ganado360/internal/platform/session"
)

const (
	DefaultTimeout = 10 * time.Second

	// UnknownServerError es el mensaje cuando la respuesta de error no trae body útil.
	UnknownServerError = "unknown server error"
)

// Client envuelve *http.Client con los helpers del API de Ganado360.
type Client struct {
	HTTP    *http.Client
	BaseURL string // opcional; si se define, los métodos pueden recibir paths relativos

	// Session aporta el token bearer. Un token en el context (session.WithToken)
	// tiene prioridad.
	Session *session.Session
}

// New crea un Client con timeout razonable.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewWithBaseURL crea un Client con BaseURL + timeout + sesión.
func NewWithBaseURL(baseURL string, timeout time.Duration, sess *session.Session) (*Client, error) {
	c := New(timeout)
	c.Session = sess
	if strings.TrimSpace(baseURL) == "" {
		return c, nil
	}
	_, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c, nil
}

// NewWithTransport permite inyectar un Transport (p.ej. para tests).
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if tr == nil {
		tr = http.DefaultTransport
	}
	return &Client{
		HTTP: &http.Client{
			Timeout:   timeout,
			Transport: tr,
		},
	}
}

// HTTPError representa una respuesta no-2xx.
// Message es el mejor mensaje que se pudo extraer del body.
type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized detecta errores de autorización: status 401 o "Unauthorized"
// dentro del mensaje (algunos endpoints responden 500 con ese texto).
func IsUnauthorized(err error) bool {
	if err == nil {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) && he.StatusCode == http.StatusUnauthorized {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unauthorized")
}

// IsNotFound indica un 404 del API remoto.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, http.MethodGet, path, nil, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.DoJSON(ctx, http.MethodPost, path, nil, in, out)
}

func (c *Client) Put(ctx context.Context, path string, in, out any) error {
	return c.DoJSON(ctx, http.MethodPut, path, nil, in, out)
}

// Delete: un 204 no toca out; si hay body JSON lo decodifica.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, http.MethodDelete, path, nil, nil, out)
}

// DoJSON hace un request JSON.
// - method: GET/POST/etc
// - pathOrURL: puede ser URL absoluta o path relativo si BaseURL está seteado
// - headers: headers extra (opcional)
// - in: body a enviar (opcional). Si nil => no body.
// - out: donde decodificar JSON (opcional). Si nil => ignora body.
// Retorna *HTTPError si status no es 2xx.
func (c *Client) DoJSON(
	ctx context.Context,
	method string,
	pathOrURL string,
	headers map[string]string,
	in any,
	out any,
) error {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}

	// Defaults
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	// Extra headers
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.ObserveUpstream(method, 0, time.Since(start))
		return fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()
	metrics.ObserveUpstream(method, resp.StatusCode, time.Since(start))

	// Leer body (limitado) para errores / decode
	raw, _ := readAtMost(resp.Body, 1<<20) // 1MB max

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		trimmed := strings.TrimSpace(string(raw))
		return &HTTPError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(trimmed),
			Body:       trimmed,
		}
	}

	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}

	return nil
}

func (c *Client) token(ctx context.Context) string {
	if tok, ok := session.TokenFrom(ctx); ok {
		return tok
	}
	return c.Session.Token()
}

// extractMessage: {"error": "..."} > texto crudo > mensaje genérico.
func extractMessage(body string) string {
	if body == "" {
		return UnknownServerError
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	return body
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}

	// Si ya es URL absoluta, úsala tal cual.
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}

	// Si no es absoluta, requiere BaseURL.
	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}

	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL, nil
}

func readAtMost(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = 1 << 20
	}
	lr := io.LimitReader(r, max)
	return io.ReadAll(lr)
}
