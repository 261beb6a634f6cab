// Package tess implements the client for the TESS agent API
// (https://tess.pareto.io/api): agent listing and execution, execution status
// and file management. The client injects the bearer credential captured at
// construction time and normalizes upstream failures into typed errors.
package tess

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
)

const (
	defaultBaseURL = "https://tess.pareto.io"
	defaultTimeout = 30 * time.Second
)

// Config holds the client configuration. APIKey is read once at construction
// and never re-read mid call.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Init applies defaults and normalizes the base URL (the upstream expects an
// /api suffix).
func (c *Config) Init() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api") {
		c.BaseURL += "/api"
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate returns an error when the configuration cannot produce a usable client.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("tess: api key was empty")
	}
	return nil
}

// Option customizes the client.
type Option func(c *Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the process logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client calls the TESS agent API. Each method issues exactly one outbound
// request; retry policy belongs to the caller (see the monitor package).
type Client struct {
	config     *Config
	httpClient *http.Client
	fs         afs.Service
	logger     zerolog.Logger
}

// New creates a client; it fails fast on a missing credential.
func New(config *Config, options ...Option) (*Client, error) {
	config.Init()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	ret := &Client{
		config: config,
		fs:     afs.New(),
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(ret)
	}
	if ret.httpClient == nil {
		ret.httpClient = &http.Client{Timeout: config.Timeout}
	}
	return ret, nil
}

// ListAgents returns one page of agents matching the supplied filters.
func (c *Client) ListAgents(ctx context.Context, input *ListAgentsInput) (*AgentPage, error) {
	if input == nil {
		input = &ListAgentsInput{}
	}
	values := url.Values{}
	if input.Page > 0 {
		values.Set("page", strconv.Itoa(input.Page))
	}
	if input.PerPage > 0 {
		values.Set("per_page", strconv.Itoa(input.PerPage))
	}
	if input.Query != "" {
		values.Set("q", input.Query)
	}
	if input.Type != "" {
		values.Set("type", input.Type)
	}
	endpoint := "agents"
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}
	data, err := c.request(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	page := &AgentPage{}
	if err := json.Unmarshal(data, page); err != nil {
		return nil, fmt.Errorf("tess: failed to decode agents page: %w", err)
	}
	return page, nil
}

// GetAgent returns the detail of a single agent.
func (c *Client) GetAgent(ctx context.Context, id string) (*Agent, error) {
	data, err := c.request(ctx, http.MethodGet, path.Join("agents", id), nil, "")
	if err != nil {
		return nil, err
	}
	holder := struct {
		Data *Agent `json:"data"`
	}{}
	if err := json.Unmarshal(data, &holder); err == nil && holder.Data != nil {
		return holder.Data, nil
	}
	agent := &Agent{}
	if err := json.Unmarshal(data, agent); err != nil {
		return nil, fmt.Errorf("tess: failed to decode agent %v: %w", id, err)
	}
	return agent, nil
}

// ExecuteAgent submits an execution for the given agent. The response is either
// a terminal record (inline result) or a pending record identified by an
// execution id the caller polls via GetExecution.
func (c *Client) ExecuteAgent(ctx context.Context, id string, input *ExecuteInput) (*Execution, error) {
	if input == nil {
		input = &ExecuteInput{}
	}
	input.Init()
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("tess: failed to encode execute request: %w", err)
	}
	data, err := c.request(ctx, http.MethodPost, path.Join("agents", id, "execute"), bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	return parseExecution(data)
}

// GetExecution fetches the current status of an execution.
func (c *Client) GetExecution(ctx context.Context, id string) (*Execution, error) {
	data, err := c.request(ctx, http.MethodGet, path.Join("agent-responses", id), nil, "")
	if err != nil {
		return nil, err
	}
	return parseExecution(data)
}

// UploadFile uploads the file at the supplied location (any scheme the afs
// service understands) and optionally asks the upstream to process it.
func (c *Client) UploadFile(ctx context.Context, location string, process bool) (*File, error) {
	content, err := c.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("tess: failed to read %v: %w", location, err)
	}
	buffer := &bytes.Buffer{}
	writer := multipart.NewWriter(buffer)
	part, err := writer.CreateFormFile("file", path.Base(location))
	if err != nil {
		return nil, err
	}
	if _, err = part.Write(content); err != nil {
		return nil, err
	}
	if err = writer.WriteField("process", strconv.FormatBool(process)); err != nil {
		return nil, err
	}
	if err = writer.Close(); err != nil {
		return nil, err
	}
	data, err := c.request(ctx, http.MethodPost, "files", buffer, writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return parseFile(data)
}

// ListFiles returns one page of uploaded files.
func (c *Client) ListFiles(ctx context.Context, page, perPage int) (*FilePage, error) {
	values := url.Values{}
	if page > 0 {
		values.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		values.Set("per_page", strconv.Itoa(perPage))
	}
	endpoint := "files"
	if len(values) > 0 {
		endpoint += "?" + values.Encode()
	}
	data, err := c.request(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return nil, err
	}
	result := &FilePage{}
	if err := json.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("tess: failed to decode files page: %w", err)
	}
	return result, nil
}

// DeleteFile removes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	_, err := c.request(ctx, http.MethodDelete, path.Join("files", id), nil, "")
	return err
}

func (c *Client) request(ctx context.Context, method, endpoint string, body io.Reader, contentType string) ([]byte, error) {
	requestURL := c.config.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, err
	}
	request.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	request.Header.Set("Accept", "application/json")
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	c.logger.Debug().Str("method", method).Str("url", requestURL).Msg("tess request")
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer response.Body.Close()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	c.logger.Debug().Int("status", response.StatusCode).Int("size", len(data)).Msg("tess response")
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, newAPIError(response.StatusCode, upstreamMessage(data))
	}
	return data, nil
}

// upstreamMessage extracts a human readable message from an error payload.
func upstreamMessage(data []byte) string {
	holder := struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}{}
	if err := json.Unmarshal(data, &holder); err == nil {
		if holder.Message != "" {
			return holder.Message
		}
		if holder.Error != "" {
			return holder.Error
		}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > 240 {
		text = text[:240]
	}
	return text
}

// parseExecution tolerates the response shapes the upstream uses: a bare
// record, a {"data": {...}} wrapper, or {"responses": [{...}]}.
func parseExecution(data []byte) (*Execution, error) {
	holder := struct {
		Data      *Execution  `json:"data"`
		Responses []Execution `json:"responses"`
	}{}
	if err := json.Unmarshal(data, &holder); err == nil {
		if holder.Data != nil {
			holder.Data.Raw = data
			return holder.Data, nil
		}
		if len(holder.Responses) > 0 {
			ret := holder.Responses[0]
			ret.Raw = data
			return &ret, nil
		}
	}
	execution := &Execution{}
	if err := json.Unmarshal(data, execution); err != nil {
		return nil, fmt.Errorf("tess: failed to decode execution: %w", err)
	}
	execution.Raw = data
	return execution, nil
}

func parseFile(data []byte) (*File, error) {
	holder := struct {
		Data *File `json:"data"`
	}{}
	if err := json.Unmarshal(data, &holder); err == nil && holder.Data != nil {
		return holder.Data, nil
	}
	file := &File{}
	if err := json.Unmarshal(data, file); err != nil {
		return nil, fmt.Errorf("tess: failed to decode file: %w", err)
	}
	return file, nil
}
