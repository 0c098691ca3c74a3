// Package api is the HTTP client for the remote persistence store: it
// fetches the full topic/message state, submits questions (with an
// optional multipart attachment) and deletes topics. Every mutating
// call carries the opaque bearer credential handed to the client at
// construction; the client never retries on its own.
package api

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

	"github.com/rs/zerolog"

	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/chat/attach"
	"github.com/GreatCoder69/intel-classroom-assistant-sub001/internal/logging"
)

// ErrUnauthorized reports a missing or rejected credential. The session
// owner decides what to do with it; the engine only surfaces it.
var ErrUnauthorized = errors.New("authorization rejected by remote store")

// RemoteError carries a non-success response verbatim so the UI can
// show the server's own words.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("remote store returned status %d", e.Status)
	}
	return e.Message
}

// TopicRecord is one topic as the remote store reports it, with its
// interleaved question/answer entries embedded.
type TopicRecord struct {
	Subject  string  `json:"subject"`
	Category string  `json:"chatCategory"`
	Visible  bool    `json:"visible"`
	Entries  []Entry `json:"messages"`
}

// Entry is a single stored exchange element. An entry carries a
// question, an answer, or both; attachments and server identifiers are
// optional.
type Entry struct {
	ID       string `json:"_id,omitempty"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	File     string `json:"file,omitempty"`
}

// AskResult is the inference response for a submitted question.
type AskResult struct {
	Answer string `json:"answer"`
	// File is the server-relative path of the stored attachment, set
	// only when the request carried one.
	File string `json:"file,omitempty"`
	// Latency is the server-side generation time in seconds.
	Latency float64 `json:"latency,omitempty"`
}

// Client talks to the persistence/auth collaborator.
type Client struct {
	baseURL string
	token   string
	role    string
	http    *http.Client
	log     zerolog.Logger
}

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the remote store root, e.g. http://localhost:8080.
	BaseURL string
	// Token is the opaque bearer credential from the auth collaborator.
	Token string
	// Role is sent as X-User-Role (student or teacher).
	Role string
	// HTTPClient overrides the transport; nil uses http.DefaultClient.
	// Ask deliberately runs without a timeout, so callers must not set
	// one on the client they pass in.
	HTTPClient *http.Client
}

// New creates a remote store client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:   strings.TrimSpace(cfg.Token),
		role:    strings.TrimSpace(cfg.Role),
		http:    httpClient,
		log:     logging.Component("api"),
	}
}

// FetchTopics retrieves every topic with its full message history.
func (c *Client) FetchTopics(ctx context.Context) ([]TopicRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/subjects", nil)
	if err != nil {
		return nil, err
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch topics: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var records []TopicRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	c.log.Debug().Int("topics", len(records)).Msg("fetched remote topic state")
	return records, nil
}

// Ask submits a question payload and waits for the generated answer.
// There is no client-side timeout: once issued, the call runs until the
// server responds or the transport fails.
func (c *Client) Ask(ctx context.Context, payload *attach.Payload) (*AskResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload.Body))
	if err != nil {
		return nil, err
	}
	c.decorate(req)
	req.Header.Set("Content-Type", payload.ContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var result AskResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return &result, nil
}

// DeleteTopic removes the topic and all of its messages remotely.
// All-or-nothing per topic; there are no partial deletes.
func (c *Client) DeleteTopic(ctx context.Context, topicID string) error {
	target := c.baseURL + "/api/subjects/" + url.PathEscape(topicID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return err
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp)
}

func (c *Client) decorate(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.role != "" {
		req.Header.Set("X-User-Role", c.role)
	}
}

func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	message := ""
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		message = strings.TrimSpace(payload.Message)
		if message == "" {
			message = strings.TrimSpace(payload.Error)
		}
	}
	c.log.Warn().Int("status", resp.StatusCode).Str("message", logging.Redact(message)).Msg("remote store rejected request")
	return &RemoteError{Status: resp.StatusCode, Message: message}
}
