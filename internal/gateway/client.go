// Package gateway выполняет HTTP-запросы к бэкенду CRM и владеет сохранённым токеном.
package gateway

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
	"sync"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"

	"github.com/mmeshcher/loyalty-client/internal/apierr"
	"github.com/mmeshcher/loyalty-client/internal/credstore"
)

// DefaultBaseURL указывает на боевой бэкенд CRM.
const DefaultBaseURL = "https://crmapp.baleno.com.hk:37210/wCRM"

const (
	msgSessionExpired = "Your session has expired. Please log in again."
	msgNetwork        = "Unable to connect to the server. Please check your internet connection."
	msgUnknown        = "An unexpected error occurred. Please try again."
	msgMalformed      = "The server returned an unexpected response."
)

// Request описывает один запрос к бэкенду.
type Request struct {
	Method   string
	Endpoint string
	Body     any
	Query    url.Values
	// SkipAuth отключает заголовок Authorization (вход и регистрация).
	SkipAuth bool
}

// Client инкапсулирует HTTP-взаимодействие с бэкендом CRM.
// Повторы запросов на этом уровне не выполняются.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	httpClient *http.Client
	store      credstore.Store
	logger     *zap.Logger
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout задаёт таймаут одного запроса.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient создаёт клиент бэкенда с указанным базовым адресом и хранилищем токена.
func NewClient(baseURL string, store credstore.Store, logger *zap.Logger, opts ...Option) *Client {
	hc := cleanhttp.DefaultPooledClient()
	hc.Timeout = 15 * time.Second

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		store:      store,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL возвращает текущий базовый адрес.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL меняет базовый адрес.
func (c *Client) SetBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = strings.TrimRight(u, "/")
	c.mu.Unlock()
}

// Token возвращает сохранённый токен; ошибки хранилища трактуются как отсутствие токена.
func (c *Client) Token(ctx context.Context) string {
	token, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("get auth token", zap.Error(err))
		return ""
	}
	return token
}

// SetToken сохраняет токен доступа.
func (c *Client) SetToken(ctx context.Context, token string) error {
	if err := c.store.Set(ctx, token); err != nil {
		c.logger.Warn("set auth token", zap.Error(err))
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

// ClearToken удаляет сохранённый токен.
func (c *Client) ClearToken(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("clear auth token", zap.Error(err))
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details"`
}

// Do выполняет запрос и декодирует тело успешного ответа в out (если out != nil).
// Все ожидаемые сбои возвращаются как *apierr.Error.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	fullURL, err := c.buildURL(req.Endpoint, req.Query)
	if err != nil {
		return apierr.Wrap(apierr.UnknownError, msgUnknown, err)
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return apierr.Wrap(apierr.UnknownError, msgUnknown, fmt.Errorf("marshal body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL.String(), body)
	if err != nil {
		return apierr.Wrap(apierr.UnknownError, msgUnknown, fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	hasToken := false
	if !req.SkipAuth {
		if token := c.Token(ctx); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
			hasToken = true
		}
	}

	c.logger.Debug("send request",
		zap.String("method", req.Method),
		zap.String("path", fullURL.Path),
		zap.Bool("auth", hasToken),
	)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed", zap.String("path", fullURL.Path), zap.Error(err))
		return apierr.Wrap(apierr.NetworkError, msgNetwork, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_ = c.ClearToken(ctx)
		return &apierr.Error{Code: apierr.Unauthorized, Message: msgSessionExpired, Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeFailure(resp)
	}

	if out == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Wrap(apierr.NetworkError, msgNetwork, fmt.Errorf("read body: %w", err))
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &apierr.Error{Code: apierr.MalformedResponse, Message: msgMalformed, Status: resp.StatusCode}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apierr.Error{
			Code:    apierr.MalformedResponse,
			Message: msgMalformed,
			Status:  resp.StatusCode,
			Err:     fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func decodeFailure(resp *http.Response) error {
	var eb errorBody
	data, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(data, &eb)

	code := apierr.APIError
	if eb.Code != "" {
		code = apierr.Code(eb.Code)
	}
	message := eb.Message
	if message == "" {
		message = fmt.Sprintf("Request failed with status %d", resp.StatusCode)
	}
	return &apierr.Error{
		Code:    code,
		Message: message,
		Details: eb.Details,
		Status:  resp.StatusCode,
	}
}

func (c *Client) buildURL(endpoint string, query url.Values) (*url.URL, error) {
	u, err := url.Parse(c.BaseURL() + endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("base url must be absolute")
	}
	if len(query) > 0 {
		q := u.Query()
		for key, values := range query {
			for _, v := range values {
				q.Add(key, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

// Get выполняет авторизованный GET-запрос.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Query: query}, out)
}

// Post выполняет авторизованный POST-запрос.
func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Body: body}, out)
}

// Put выполняет авторизованный PUT-запрос.
func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Endpoint: endpoint, Body: body}, out)
}

// Delete выполняет авторизованный DELETE-запрос.
func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: endpoint}, out)
}
