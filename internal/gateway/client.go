package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrUnregistered means the gateway rejected the device token as dead or
// structurally invalid. The caller should null the stored token.
var ErrUnregistered = errors.New("gateway: token unregistered")

// Error codes the gateway reports in its failure body.
const (
	CodeUnregistered    = "UNREGISTERED"
	CodeInvalidArgument = "INVALID_ARGUMENT"
)

// Notification is the cross-platform title/body block.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Message is one FCM v1 send. Both platform blocks are always populated; the
// gateway ignores the one that doesn't match the token's platform.
type Message struct {
	Token        string            `json:"token"`
	Notification *Notification     `json:"notification,omitempty"`
	Data         map[string]string `json:"data,omitempty"`
	APNS         *APNSConfig       `json:"apns,omitempty"`
	Android      *AndroidConfig    `json:"android,omitempty"`
}

type APNSConfig struct {
	Headers map[string]string `json:"headers,omitempty"`
	Payload *APNSPayload      `json:"payload,omitempty"`
}

type APNSPayload struct {
	APS APS `json:"aps"`
}

type APS struct {
	Alert            *Notification `json:"alert,omitempty"`
	Sound            string        `json:"sound,omitempty"`
	Badge            int           `json:"badge,omitempty"`
	ContentAvailable int           `json:"content-available,omitempty"`
	MutableContent   int           `json:"mutable-content,omitempty"`
}

type AndroidConfig struct {
	Priority     string               `json:"priority,omitempty"`
	Notification *AndroidNotification `json:"notification,omitempty"`
}

type AndroidNotification struct {
	Title     string `json:"title,omitempty"`
	Body      string `json:"body,omitempty"`
	Sound     string `json:"sound,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// NewMessage builds the standard dual-platform message for one device token.
func NewMessage(token, title, body string, data map[string]string) Message {
	return Message{
		Token:        token,
		Notification: &Notification{Title: title, Body: body},
		Data:         data,
		APNS: &APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &APNSPayload{APS: APS{
				Alert:            &Notification{Title: title, Body: body},
				Sound:            "default",
				Badge:            1,
				ContentAvailable: 1,
				MutableContent:   1,
			}},
		},
		Android: &AndroidConfig{
			Priority: "high",
			Notification: &AndroidNotification{
				Title:     title,
				Body:      body,
				Sound:     "default",
				ChannelID: "default",
			},
		},
	}
}

// SendError is a non-2xx gateway response for one device.
type SendError struct {
	StatusCode int
	Code       string // errorCode from the failure body, if present
	Body       string
}

func (e *SendError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway: send failed: %d %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("gateway: send failed: %d", e.StatusCode)
}

// Unwrap lets callers match dead-token responses with
// errors.Is(err, ErrUnregistered).
func (e *SendError) Unwrap() error {
	if e.Code == CodeUnregistered || e.Code == CodeInvalidArgument {
		return ErrUnregistered
	}
	return nil
}

// Client posts messages to the gateway's project send endpoint.
type Client struct {
	endpoint string
	tokens   *TokenSource
	http     *http.Client
}

// NewClient builds a client for the given service account.
// baseURL overrides the production gateway host (tests); empty means default.
func NewClient(sa *ServiceAccount, tokens *TokenSource, httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = "https://fcm.googleapis.com"
	}
	return &Client{
		endpoint: fmt.Sprintf("%s/v1/projects/%s/messages:send", baseURL, sa.ProjectID),
		tokens:   tokens,
		http:     httpClient,
	}
}

// BearerToken exposes the cached token source (used once per dispatch batch).
func (c *Client) BearerToken(ctx context.Context) (string, error) {
	return c.tokens.Token(ctx)
}

// Send posts one message using the given bearer token.
func (c *Client) Send(ctx context.Context, bearer string, msg Message) error {
	payload, err := json.Marshal(struct {
		Message Message `json:"message"`
	}{Message: msg})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	return &SendError{
		StatusCode: resp.StatusCode,
		Code:       parseErrorCode(body),
		Body:       compact(body),
	}
}

// parseErrorCode digs errorCode out of a gateway failure body:
// {"error": {"details": [{"errorCode": "UNREGISTERED"}]}}
func parseErrorCode(body []byte) string {
	var out struct {
		Error struct {
			Status  string `json:"status"`
			Details []struct {
				ErrorCode string `json:"errorCode"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	for _, d := range out.Error.Details {
		if d.ErrorCode != "" {
			return d.ErrorCode
		}
	}
	return out.Error.Status
}
