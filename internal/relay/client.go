package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultTimeout = 10 * time.Second

// Sender delivers one text message to one WhatsApp recipient.
type Sender interface {
	Send(ctx context.Context, recipient string, message string) (*Response, error)
}

// Response stores relay call metadata for logs.
type Response struct {
	StatusCode int
	Body       string
	MessageID  string
}

type sendRequest struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Client invokes the WhatsApp relay function over HTTP.
type Client struct {
	client    *resty.Client
	endpoint  string
	authToken string
}

func NewClient(endpoint string, authToken string, timeout time.Duration) (*Client, error) {
	client := resty.New()
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client.SetTimeout(timeout)
	client.SetRetryCount(0)

	return NewClientWithResty(endpoint, authToken, client)
}

func NewClientWithResty(endpoint string, authToken string, client *resty.Client) (*Client, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("relay endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid relay endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(DefaultTimeout)
	}
	client.SetRetryCount(0)

	return &Client{
		client:    client,
		endpoint:  trimmedEndpoint,
		authToken: strings.TrimSpace(authToken),
	}, nil
}

func (c *Client) Send(ctx context.Context, recipient string, message string) (*Response, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("relay client is not initialized")
	}
	if strings.TrimSpace(recipient) == "" {
		return nil, &Error{Message: "recipient is required"}
	}
	if strings.TrimSpace(message) == "" {
		return nil, &Error{Message: "message is required"}
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(sendRequest{Recipient: recipient, Message: message})
	if c.authToken != "" {
		req.SetAuthToken(c.authToken)
	}

	response, err := req.Post(c.endpoint)
	if err != nil {
		return nil, &Error{Message: "request failed", Cause: err}
	}

	statusCode := response.StatusCode()
	responseBody := strings.TrimSpace(response.String())

	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &Response{
			StatusCode: statusCode,
			Body:       responseBody,
			MessageID:  messageID(response),
		}, nil
	}

	return nil, &Error{
		StatusCode: statusCode,
		Message:    errorMessage(responseBody),
	}
}

// errorMessage prefers the relay's {"error": "..."} detail over the raw body.
func errorMessage(body string) string {
	var parsed errorResponse
	if json.Unmarshal([]byte(body), &parsed) == nil {
		for _, detail := range []string{parsed.Error, parsed.Message} {
			if detail = strings.TrimSpace(detail); detail != "" {
				return detail
			}
		}
	}
	if body == "" {
		return "empty response body"
	}
	return body
}

func messageID(response *resty.Response) string {
	if response == nil {
		return ""
	}

	for _, key := range []string{"X-Request-ID", "X-Request-Id", "X-Message-ID", "X-Message-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}
