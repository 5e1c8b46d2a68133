package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/abhilash2200/beyuvana-sub000/internal/model"
	"github.com/abhilash2200/beyuvana-sub000/internal/session"
	"github.com/abhilash2200/beyuvana-sub000/internal/transport"
)

// apiBasePath is the base path for the commerce API endpoints.
const apiBasePath = "/api/v1"

// userAgent identifies this client to upstream servers.
// Required: the backend CDN rate-limits requests without User-Agent.
const userAgent = "BeyuvanaCartProxy/1.0"

// Config holds backend-specific client configuration.
type Config struct {
	StoreURL string
	APIKey   string
	Timeout  time.Duration // Default: 30s
}

// Client implements Backend against the Beyuvana commerce API.
//
// Every call is authenticated two ways at once: a merchant-level bearer key
// identifying this proxy, and the buyer's session key forwarded verbatim.
// The backend reads the session key from either "X-Session-Key" or
// "Session-Key" depending on the endpoint's age, so both are always sent.
type Client struct {
	httpClient *http.Client
	storeURL   string
	apiKey     string
}

var _ Backend = (*Client)(nil)

// New creates a backend client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	// Use a browser TLS fingerprint transport to avoid JA3-based rate
	// limiting. See internal/transport for rationale.
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport.NewBrowserTransport(timeout),
		},
		storeURL: strings.TrimSuffix(cfg.StoreURL, "/"),
		apiKey:   cfg.APIKey,
	}, nil
}

// AddToCart performs an additive quantity add for a product price tier.
func (c *Client) AddToCart(ctx context.Context, id session.Identity, req AddToCartRequest) error {
	req.UserID = id.UserID
	_, err := c.doRequest(ctx, id, "/cart/add", req, "add item to cart")
	return err
}

// GetCart returns the raw server cart rows for the user.
// An empty cart is a success response with an empty or null data array.
func (c *Client) GetCart(ctx context.Context, id session.Identity) ([]ServerCartItem, error) {
	data, err := c.doRequest(ctx, id, "/cart/list", map[string]string{"user_id": id.UserID}, "load cart")
	if err != nil {
		return nil, err
	}

	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var rows []ServerCartItem
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, model.NewUpstreamError("load cart", fmt.Errorf("parsing cart rows: %w", err))
	}
	return rows, nil
}

// RemoveOne decrements a cart line by one unit, or removes the whole line
// when req.All is set.
func (c *Client) RemoveOne(ctx context.Context, id session.Identity, req RemoveOneRequest) error {
	req.UserID = id.UserID
	_, err := c.doRequest(ctx, id, "/cart/remove-one", req, "remove item from cart")
	return err
}

// RemoveAll clears the user's entire cart.
func (c *Client) RemoveAll(ctx context.Context, id session.Identity) error {
	_, err := c.doRequest(ctx, id, "/cart/remove-all", map[string]string{"user_id": id.UserID}, "clear cart")
	return err
}

// ProductDetails fetches the full catalog record including price tiers.
func (c *Client) ProductDetails(ctx context.Context, id session.Identity, productID string) (*model.ProductDetail, error) {
	data, err := c.doRequest(ctx, id, "/product/details",
		map[string]string{"product_id": productID}, "load product details")
	if err != nil {
		return nil, err
	}

	if len(data) == 0 || string(data) == "null" {
		return nil, model.NewNotFoundError("product")
	}

	var raw serverProductDetail
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, model.NewUpstreamError("load product details", fmt.Errorf("parsing product details: %w", err))
	}

	detail := transformProductDetail(&raw)
	if detail.ProductID == "" {
		detail.ProductID = productID
	}
	return detail, nil
}

// doRequest executes one POST against the commerce API and unwraps the
// {success, message, data} envelope. All endpoints are POST with JSON
// bodies, including reads.
//
// The operation string names what the caller was doing, in user terms; it
// becomes the "Failed to <operation>" message when the backend misbehaves.
func (c *Client) doRequest(ctx context.Context, id session.Identity, path string, body interface{}, operation string) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.storeURL+apiBasePath+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.setAPIHeaders(req, id)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError(operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewUpstreamError(operation, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return nil, c.parseErrorResponse(resp.StatusCode, respBody, operation)
	}

	// CDN challenge pages come back as 200 HTML. Catch them before the
	// JSON decoder produces a confusing syntax error.
	if isHTMLBody(respBody) {
		return nil, model.NewUpstreamError(operation,
			fmt.Errorf("backend returned HTML instead of JSON (likely a CDN challenge page)"))
	}

	var env apiEnvelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, model.NewUpstreamError(operation, fmt.Errorf("parsing response: %w", err))
	}

	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = "request rejected"
		}
		return nil, model.NewUpstreamError(operation, fmt.Errorf("backend error: %s", msg))
	}

	return env.Data, nil
}

// setAPIHeaders sets the headers every commerce API request carries.
func (c *Client) setAPIHeaders(req *http.Request, id session.Identity) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	if id.SessionKey != "" {
		// Both spellings: older endpoints read one, newer the other.
		req.Header.Set("X-Session-Key", id.SessionKey)
		req.Header.Set("Session-Key", id.SessionKey)
	}
}

// parseErrorResponse converts a backend error response to an APIError.
func (c *Client) parseErrorResponse(statusCode int, body []byte, operation string) error {
	var env apiEnvelope
	json.Unmarshal(body, &env) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError("resource")
	case 401, 403:
		return model.NewUnauthorizedError("backend rejected credentials")
	case 400:
		msg := env.Message
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("request", msg)
	case 429:
		return model.NewRateLimitError("commerce backend")
	default:
		return model.NewUpstreamError(operation,
			fmt.Errorf("status %d: %s", statusCode, env.Message))
	}
}

// isHTMLBody reports whether a response body looks like an HTML document.
func isHTMLBody(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	return bytes.HasPrefix(trimmed, []byte("<"))
}
