package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

type LiwaConfig struct {
	BaseURL     string
	Account     string
	Password    string
	FromName    string
	CostCents   int64
	HTTPTimeout time.Duration
}

// LiwaProvider talks to the Liwa.co SMS gateway. Authentication is a
// separate call because tokens are cached by the dispatch engine.
type LiwaProvider struct {
	cfg    LiwaConfig
	client *http.Client
}

func NewLiwaProvider(cfg LiwaConfig) *LiwaProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &LiwaProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type liwaAuthRequest struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

type liwaAuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

func (p *LiwaProvider) Authenticate(ctx context.Context) (string, error) {
	body, err := json.Marshal(liwaAuthRequest{
		Account:  p.cfg.Account,
		Password: p.cfg.Password,
	})
	if err != nil {
		return "", permanentError("auth", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", permanentError("auth", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", transientError("auth", "gateway unreachable", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", authError("auth", fmt.Sprintf("credentials rejected: %s", raw), nil)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", transientError("auth", fmt.Sprintf("gateway error %d", resp.StatusCode), nil)
	case resp.StatusCode >= 400:
		return "", permanentError("auth", fmt.Sprintf("gateway rejected request %d: %s", resp.StatusCode, raw), nil)
	}

	var parsed liwaAuthResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", transientError("auth", "malformed response", err)
	}
	if !parsed.Success || parsed.Token == "" {
		return "", authError("auth", fmt.Sprintf("login failed: %s", parsed.Message), nil)
	}
	return parsed.Token, nil
}

type liwaSendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
	From    string `json:"from"`
}

type liwaSendResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id"`
	Message   string `json:"message"`
}

func (p *LiwaProvider) Send(ctx context.Context, token, recipient, body string) (*SendReceipt, error) {
	payload, err := json.Marshal(liwaSendRequest{
		To:      recipient,
		Message: body,
		From:    p.cfg.FromName,
	})
	if err != nil {
		return nil, permanentError("send", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/sms/send", bytes.NewReader(payload))
	if err != nil {
		return nil, permanentError("send", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, transientError("send", "gateway unreachable", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, authError("send", "token rejected", nil)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, transientError("send", fmt.Sprintf("gateway error %d", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, permanentError("send", fmt.Sprintf("recipient rejected: %s", raw), nil)
	case resp.StatusCode >= 400:
		return nil, permanentError("send", fmt.Sprintf("gateway rejected request %d: %s", resp.StatusCode, raw), nil)
	}

	var parsed liwaSendResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, transientError("send", "malformed response", err)
	}
	if !parsed.Success {
		return nil, transientError("send", fmt.Sprintf("send failed: %s", parsed.Message), nil)
	}

	return &SendReceipt{
		ProviderMessageID: parsed.MessageID,
		RawResponse:       string(raw),
		CostCents:         p.cfg.CostCents,
	}, nil
}
