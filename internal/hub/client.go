package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"ollamahub/internal/models"
)

const DefaultBaseURL = "http://127.0.0.1:8000"

// APIKeyHeader carries the user's key on every request.
const APIKeyHeader = "X-API-Key"

// Config holds the options for NewClient.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client // optional
}

// Client sends requests to the service. The openai-go client is used as a
// plain JSON transport against the service's own endpoints; it never
// retries and sets no timeout, so a stream stays open until the server
// ends it or the context is cancelled.
//
// Client is safe for concurrent use.
type Client struct {
	oa      openai.Client
	baseURL string

	mu     sync.RWMutex
	apiKey string
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithBaseURL(baseURL + "/"),
		option.WithMaxRetries(0),
		// The service authenticates with X-API-Key only.
		option.WithHeaderDel("authorization"),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		oa:      openai.NewClient(opts...),
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAPIKey replaces the key sent with subsequent requests.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = strings.TrimSpace(key)
	c.mu.Unlock()
}

func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

func (c *Client) requestOptions() []option.RequestOption {
	return []option.RequestOption{
		option.WithHeader("Content-Type", "application/json"),
		option.WithHeader(APIKeyHeader, c.APIKey()),
	}
}

// Do posts the payload to its endpoint and returns the open response. The
// caller owns the body and must close it. Non-2xx statuses are returned as
// *Error with KindStatus.
func (c *Client) Do(ctx context.Context, p Payload) (*http.Response, error) {
	if !p.valid() {
		return nil, &Error{Kind: KindTransport, Message: "post: empty payload"}
	}
	op := "POST /" + p.Mode.Endpoint()

	var raw *http.Response
	if err := c.oa.Post(ctx, p.Mode.Endpoint(), p.Body(), &raw, c.requestOptions()...); err != nil {
		return nil, wrapTransportError(op, err)
	}
	return raw, nil
}

// Models lists the models the service accepts. The default model is
// returned separately; it may be empty.
func (c *Client) Models(ctx context.Context) ([]models.AIModel, string, error) {
	var body ModelsResponse
	if err := c.getJSON(ctx, "models", &body); err != nil {
		return nil, "", err
	}

	sizes := make(map[string]int64, len(body.Models))
	for _, m := range body.Models {
		name := m.Name
		if name == "" {
			name = m.Model
		}
		sizes[name] = m.Size
	}

	names := body.AvailableModels
	if len(names) == 0 {
		for _, m := range body.Models {
			if m.Name != "" {
				names = append(names, m.Name)
			}
		}
	}

	out := make([]models.AIModel, 0, len(names))
	for _, name := range names {
		out = append(out, models.AIModel{ID: name, Name: name, Size: sizes[name]})
	}
	return out, body.DefaultModel, nil
}

// Health reports the service status. An unhealthy service is not an error;
// only a failed request is.
func (c *Client) Health(ctx context.Context) (models.HealthStatus, error) {
	var body HealthResponse
	if err := c.getJSON(ctx, "health", &body); err != nil {
		return models.HealthStatus{}, err
	}

	st := models.HealthStatus{
		Healthy:       body.Status == "healthy",
		Message:       body.Message,
		APIVersion:    body.APIVersion,
		DefaultModel:  body.DefaultModel,
		OllamaService: body.OllamaService.Status,
	}
	if st.Message == "" {
		st.Message = body.OllamaService.Message
	}
	if body.Error != "" {
		st.Message = strings.TrimSpace(st.Message + " (" + body.Error + ")")
	}
	return st, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	op := "GET /" + path

	var raw *http.Response
	if err := c.oa.Get(ctx, path, nil, &raw, c.requestOptions()...); err != nil {
		return wrapTransportError(op, err)
	}
	defer raw.Body.Close()

	if err := json.NewDecoder(raw.Body).Decode(dst); err != nil {
		return &Error{Kind: KindInvalidResponse, Message: op + ": decode", Cause: err}
	}
	return nil
}
