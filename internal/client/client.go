// Package client is a small Go client for the EchoMe X HTTP API. It unwraps
// the {success,data} envelope and turns error envelopes into *APIError.
package client

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

	"github.com/google/uuid"

	"github.com/tbourn/echome-x/internal/persona"
)

const (
	headerOwnerToken     = "X-Owner-Token"
	headerIdempotencyKey = "Idempotency-Key"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// Client talks to one server. OwnerToken, when set, is sent on every request.
type Client struct {
	BaseURL    string
	OwnerToken string
	HTTP       *http.Client

	// NewKey returns idempotency keys for chat messages. Defaults to uuid.NewString.
	NewKey func() string
}

// New returns a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		NewKey:  uuid.NewString,
	}
}

// TwinRequest creates a twin. With BigFiveTraits set it goes to the
// personality path and Persona is ignored.
type TwinRequest struct {
	Name               string                      `json:"name"`
	Persona            string                      `json:"persona,omitempty"`
	BigFiveTraits      *persona.BigFive            `json:"bigFiveTraits,omitempty"`
	CommunicationStyle *persona.CommunicationStyle `json:"communicationStyle,omitempty"`
	CognitiveStyle     *persona.CognitiveStyle     `json:"cognitiveStyle,omitempty"`
}

// Created is the server's answer to a create call.
type Created struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OwnerToken string `json:"ownerToken"`
}

// Twin is the public view of a twin.
type Twin struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Persona   string    `json:"persona"`
	CreatedAt time.Time `json:"createdAt"`
}

// Reply is one chat answer.
type Reply struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Twin      *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"twin,omitempty"`
	Replayed bool `json:"-"`
}

// Topic is one slice of the popular-topics chart.
type Topic struct {
	Name       string `json:"name"`
	Percentage int    `json:"percentage"`
}

// Analytics mirrors the dashboard payload.
type Analytics struct {
	Followers           int     `json:"followers"`
	EngagementRate      float64 `json:"engagementRate"`
	TotalInteractions   int     `json:"totalInteractions"`
	AverageResponseTime float64 `json:"averageResponseTime"`
	PopularTopics       []Topic `json:"popularTopics"`
	WeeklyData          []int   `json:"weeklyData"`
	TwinCount           int64   `json:"twinCount"`
	ConversationTurns   int64   `json:"conversationTurns"`
}

// Health checks the server's liveness endpoint, which lives outside the API
// base path.
func (c *Client) Health(ctx context.Context) error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("client: base url: %w", err)
	}
	u.Path = "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

// CreateTwin creates a twin on the raw or personality path.
func (c *Client) CreateTwin(ctx context.Context, in TwinRequest) (*Created, error) {
	path := "/twins"
	if in.BigFiveTraits != nil {
		path = "/twins/personality"
		in.Persona = ""
	}
	var out Created
	if _, err := c.do(ctx, http.MethodPost, path, in, nil, &out); err != nil {
		return nil, err
	}
	if c.OwnerToken == "" {
		c.OwnerToken = out.OwnerToken
	}
	return &out, nil
}

// Chat sends one message. An empty twinID lets the server pick the latest
// twin. Each call carries a fresh idempotency key.
func (c *Client) Chat(ctx context.Context, twinID, message string) (*Reply, error) {
	path := "/chat"
	body := map[string]string{"message": message}
	if twinID != "" {
		path = "/twins/" + url.PathEscape(twinID) + "/chat"
	}
	hdr := http.Header{}
	if c.NewKey != nil {
		hdr.Set(headerIdempotencyKey, c.NewKey())
	}
	var out Reply
	resp, err := c.do(ctx, http.MethodPost, path, body, hdr, &out)
	if err != nil {
		return nil, err
	}
	out.Replayed = resp.Header.Get("Idempotency-Replayed") == "true"
	return &out, nil
}

// Twins lists the twins owned by OwnerToken.
func (c *Client) Twins(ctx context.Context) ([]Twin, error) {
	var out struct {
		Twins []Twin `json:"twins"`
	}
	if _, err := c.do(ctx, http.MethodGet, "/twins", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Twins, nil
}

// DeleteTwin hard-deletes a twin and its history.
func (c *Client) DeleteTwin(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/twins/"+url.PathEscape(id), nil, nil, nil)
	return err
}

// Analytics fetches the dashboard figures.
func (c *Client) Analytics(ctx context.Context) (*Analytics, error) {
	var out Analytics
	if _, err := c.do(ctx, http.MethodGet, "/analytics", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body any, hdr http.Header, out any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("client: encode: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.OwnerToken != "" {
		req.Header.Set(headerOwnerToken, c.OwnerToken)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&env); err != nil && !errors.Is(err, io.EOF) {
		return resp, fmt.Errorf("client: decode %s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		ae := &APIError{Status: resp.StatusCode, RequestID: env.RequestID}
		if env.Error != nil {
			ae.Code, ae.Message = env.Error.Code, env.Error.Message
		}
		return resp, ae
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp, fmt.Errorf("client: decode data: %w", err)
		}
	}
	return resp, nil
}
