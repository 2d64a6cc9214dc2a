// Package client is the thin HTTP client for the remote chat service. Every
// call is a JSON POST with body {"data": ...}; successes come back as
// {"result": ...} and failures as {"error": {"message": ...}}.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-character-chat/widget/internal/models"
	"ai-character-chat/widget/pkg/errors"
	"ai-character-chat/widget/pkg/logger"
	"ai-character-chat/widget/pkg/resilience"
)

// Client calls the remote chat service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.Breaker
	log        *logger.Logger
}

// New creates a client for the service at baseURL. timeout applies to the
// envelope calls; streaming requests run without a deadline because the
// stream stays open until the transport closes. A circuit breaker fronts the
// envelope calls so a dead service fails fast instead of stacking timeouts.
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    resilience.NewBreaker(resilience.DefaultBreakerConfig("chat-service"), log),
		log:        log.WithComponent("client"),
	}
}

type requestEnvelope struct {
	Data any `json:"data"`
}

type responseEnvelope struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// call performs one envelope request. result may be nil for calls whose
// payload is ignored. Only transport failures feed the circuit breaker; an
// error envelope means the service answered and is healthy.
func (c *Client) call(ctx context.Context, name string, data, result any) error {
	body, err := json.Marshal(requestEnvelope{Data: data})
	if err != nil {
		return fmt.Errorf("error marshaling request: %w", err)
	}

	var env responseEnvelope
	if err := c.breaker.Execute(func() error {
		return c.post(ctx, name, body, &env)
	}); err != nil {
		return err
	}

	if env.Error != nil {
		return errors.NewRemoteError(env.Error.Message)
	}
	if result != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, result); err != nil {
			return errors.NewRemoteError(fmt.Sprintf("%s: error decoding result: %v", name, err))
		}
	}
	return nil
}

// post sends one envelope request over the wire and decodes the response
// into env.
func (c *Client) post(ctx context.Context, name string, body []byte, env *responseEnvelope) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/"+name, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewRemoteError(fmt.Sprintf("%s: %v", name, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return errors.NewHTTPError(resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return errors.NewRemoteError(fmt.Sprintf("%s: error decoding response: %v", name, err))
	}
	return nil
}

// CreateAnonymousUser asks the service for a fresh user id.
func (c *Client) CreateAnonymousUser(ctx context.Context) (string, error) {
	var res struct {
		UID string `json:"uid"`
	}
	if err := c.call(ctx, "createAnonymousUser", struct{}{}, &res); err != nil {
		return "", err
	}
	return res.UID, nil
}

// OnboardUser registers profile details for a freshly created user.
func (c *Client) OnboardUser(ctx context.Context, uid, deviceID, displayName string, birthYear int) error {
	data := struct {
		UID         string `json:"uid"`
		DeviceID    string `json:"deviceId"`
		DisplayName string `json:"displayName"`
		BirthYear   int    `json:"birthYear"`
	}{uid, deviceID, displayName, birthYear}
	return c.call(ctx, "onboardUser", data, nil)
}

// UserChats lists the user's prior conversations. The service reports a
// missing or empty list through its error envelope; both are normal and
// yield an empty result here, not an error.
func (c *Client) UserChats(ctx context.Context, uid string) ([]models.ChatSummary, error) {
	data := struct {
		UID string `json:"uid"`
	}{uid}
	var res struct {
		Conversations []models.ChatSummary `json:"conversations"`
	}
	if err := c.call(ctx, "getUserChats", data, &res); err != nil {
		if isEmptyResult(err) {
			return nil, nil
		}
		return nil, err
	}
	return res.Conversations, nil
}

// isEmptyResult reports whether err is the service's way of saying the user
// has no conversations yet.
func isEmptyResult(err error) bool {
	msg := strings.ToLower(errors.UserMessage(err))
	return strings.Contains(msg, "not found") || strings.Contains(msg, "empty")
}

// ListCharacters fetches the character catalog.
func (c *Client) ListCharacters(ctx context.Context, limit int, filterTags []string, prefetch bool) ([]models.Character, error) {
	data := struct {
		Limit        int      `json:"limit"`
		FilteredTags []string `json:"filteredTags"`
		PrefetchMode bool     `json:"prefetchMode"`
	}{limit, filterTags, prefetch}
	var res struct {
		Characters []models.Character `json:"characters"`
	}
	if err := c.call(ctx, "listCharacters", data, &res); err != nil {
		return nil, err
	}
	return res.Characters, nil
}

// NewChat requests a new-or-existing conversation handle for the character.
func (c *Client) NewChat(ctx context.Context, characterID, uid string) (*models.ChatHandle, error) {
	data := struct {
		CharacterID string `json:"characterId"`
		UID         string `json:"uid"`
	}{characterID, uid}
	var res models.ChatHandle
	if err := c.call(ctx, "newChat", data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ChatHistory fetches up to limit prior messages, oldest first.
func (c *Client) ChatHistory(ctx context.Context, characterID, uid string, limit int) ([]models.Message, error) {
	data := struct {
		CharacterID string `json:"characterId"`
		UID         string `json:"uid"`
		Limit       int    `json:"limit"`
	}{characterID, uid, limit}
	var res struct {
		Messages []models.Message `json:"messages"`
	}
	if err := c.call(ctx, "getChatHistory", data, &res); err != nil {
		return nil, err
	}
	return res.Messages, nil
}

// StreamMessage opens the reply stream for prompt. The caller owns the
// returned body and must close it; it reads until the transport closes.
func (c *Client) StreamMessage(ctx context.Context, prompt, characterID, uid string) (io.ReadCloser, error) {
	body, err := json.Marshal(struct {
		Prompt      string `json:"prompt"`
		CharacterID string `json:"characterId"`
		UID         string `json:"uid"`
	}{prompt, characterID, uid})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	endpoint := c.baseURL + "/api/chat/stream?uid=" + url.QueryEscape(uid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+uid)

	// No client timeout here: the stream runs until the service is done.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, errors.NewRemoteError(fmt.Sprintf("chat stream: %v", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, errors.NewHTTPError(resp.StatusCode)
	}
	return resp.Body, nil
}
