package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/kujibot/internal/domain"
)

const (
	defaultBaseURL = "http://localhost:15888"

	// El gateway corre en localhost y habla con full nodes detrás — el
	// cuello de botella es el chain, no HTTP. 10/s con burst corto evita
	// saturar el node RPC en cancel-all masivos.
	requestsPerSec = 10
	requestBurst   = 5

	// Solo reintentos de cortesía ante 429. Los fallos reales los gobierna
	// el retry runner del core, que es quien conoce la política por
	// operación.
	maxRateLimitRetries = 3
	rateLimitWait       = 500 * time.Millisecond
)

// Client es el transporte HTTP hacia el gateway service. Una instancia por
// adapter — se inyecta explícitamente, no hay singleton compartido.
type Client struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
}

// NewClient creates a Client for the given gateway base URL. Empty baseURL
// uses the local gateway default. timeout bounds each HTTP round trip; the
// zero value means 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(requestsPerSec, requestBurst),
	}
}

// get hace un GET con query params y decodifica la respuesta JSON en out.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return c.do(ctx, op, http.MethodGet, u, nil, out)
}

// post hace un POST con body JSON.
func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, c.baseURL+path, body, out)
}

// delete hace un DELETE con body JSON — el gateway usa DELETE con payload
// para las cancelaciones.
func (c *Client) delete(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodDelete, c.baseURL+path, body, out)
}

// do ejecuta un request con rate limiting, clasifica errores del venue y
// envuelve todo fallo de red/HTTP en *domain.TransportError.
func (c *Client) do(ctx context.Context, op, method, u string, body, out any) error {
	var encoded []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("marshal body: %w", err)}
		}
		encoded = b
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return &domain.TransportError{Op: op, Err: fmt.Errorf("rate limiter: %w", err)}
		}

		var payload io.Reader
		if encoded != nil {
			payload = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, payload)
		if err != nil {
			return &domain.TransportError{Op: op, Err: err}
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return &domain.TransportError{Op: op, Err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < maxRateLimitRetries {
			resp.Body.Close()
			slog.Warn("gateway: rate limited", "op", op, "attempt", attempt+1)
			select {
			case <-time.After(rateLimitWait):
			case <-ctx.Done():
				return &domain.TransportError{Op: op, Err: ctx.Err()}
			}
			continue
		}

		return c.decode(op, resp, out)
	}
}

// decode interpreta la respuesta: éxito → JSON en out, error → clasificación.
func (c *Client) decode(op string, resp *http.Response, out any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(resp.Body)
		if err := classifyVenueError(op, resp.StatusCode, raw); err != nil {
			return fmt.Errorf("gateway %s: %w", op, err)
		}
		return &domain.TransportError{
			Op:  op,
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// orderScopedOps son las operaciones donde un 404 pelado significa "la orden
// no existe". Para el resto (markets, balances, book...) un 404 es una ruta
// rota del gateway, no una orden ausente.
var orderScopedOps = map[string]bool{
	"GetOrder":        true,
	"CancelOrder":     true,
	"CancelOrders":    true,
	"CancelAllOrders": true,
}

// classifyVenueError es el ÚNICO sitio donde se inspecciona texto de error
// del venue. A partir de aquí todo es tipado: el core clasifica con
// errors.Is(err, domain.ErrOrderNotFound).
func classifyVenueError(op string, status int, body []byte) error {
	msg := strings.ToLower(string(body))
	if strings.Contains(msg, "order not found") || strings.Contains(msg, "orders not found") {
		return domain.ErrOrderNotFound
	}
	if status == http.StatusNotFound && orderScopedOps[op] {
		return domain.ErrOrderNotFound
	}
	return nil
}
