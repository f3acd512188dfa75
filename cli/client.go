package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/telegate/telegate/server"
	"github.com/telegate/telegate/sessionstore"
)

// apiClient talks to the auth endpoint and keeps the on-disk session store in
// step with the transport headers: a rotated token is persisted, and the
// clear signal wins over any token on the same response.
type apiClient struct {
	baseURL    string
	httpClient *http.Client
	store      *sessionstore.Store
}

func newAPIClient(baseURL string, httpClient *http.Client, store *sessionstore.Store) *apiClient {
	return &apiClient{baseURL: baseURL, httpClient: httpClient, store: store}
}

type authRequest struct {
	Action        string `json:"action"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	PhoneCodeHash string `json:"phoneCodeHash,omitempty"`
	PhoneCode     string `json:"phoneCode,omitempty"`
	Password      string `json:"password,omitempty"`
}

type authResponse struct {
	Success          *bool  `json:"success"`
	IsConnected      *bool  `json:"isConnected"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	PhoneCodeHash    string `json:"phoneCodeHash"`
	PasswordRequired bool   `json:"passwordRequired"`
	CodeExpired      bool   `json:"codeExpired"`
	CodeInvalid      bool   `json:"codeInvalid"`
	FloodWait        bool   `json:"floodWait"`
	WaitTime         int    `json:"waitTime"`
	AuthRestart      bool   `json:"authRestart"`
}

func (c *apiClient) checkSession(ctx context.Context) (authResponse, error) {
	return c.do(ctx, http.MethodGet, nil, "")
}

func (c *apiClient) sendCode(ctx context.Context, phoneNumber string) (authResponse, error) {
	req := authRequest{Action: server.ActionSendCode, PhoneNumber: phoneNumber}
	return c.do(ctx, http.MethodPost, &req, phoneNumber)
}

func (c *apiClient) verifyCode(ctx context.Context, phoneNumber, phoneCodeHash, phoneCode string) (authResponse, error) {
	req := authRequest{
		Action:        server.ActionVerifyCode,
		PhoneNumber:   phoneNumber,
		PhoneCodeHash: phoneCodeHash,
		PhoneCode:     phoneCode,
	}
	return c.do(ctx, http.MethodPost, &req, phoneNumber)
}

func (c *apiClient) logout(ctx context.Context) (authResponse, error) {
	req := authRequest{Action: server.ActionLogout}
	return c.do(ctx, http.MethodPost, &req, "")
}

// do issues the request with the stored token attached and applies the
// response's session signals to the store before returning the body.
func (c *apiClient) do(ctx context.Context, method string, payload *authRequest, phoneNumber string) (authResponse, error) {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return authResponse{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+server.RouteAuth, body)
	if err != nil {
		return authResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.store.Load()
	if err != nil && !errors.Is(err, sessionstore.ErrNoSession) {
		return authResponse{}, fmt.Errorf("load stored session: %w", err)
	}
	if token != "" {
		req.Header.Set(server.SessionHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return authResponse{}, fmt.Errorf("call auth endpoint: %w", err)
	}
	defer resp.Body.Close()

	if err := c.applySessionHeaders(resp, phoneNumber); err != nil {
		return authResponse{}, err
	}

	var decoded authResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return authResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func (c *apiClient) applySessionHeaders(resp *http.Response, phoneNumber string) error {
	if resp.Header.Get(server.SessionClearHeader) == "true" {
		// Clear wins: a token on the same response is already dead.
		if err := c.store.Clear(); err != nil {
			return fmt.Errorf("clear stored session: %w", err)
		}
		return nil
	}

	if token := resp.Header.Get(server.SessionHeader); token != "" {
		if err := c.store.Save(token, "", phoneNumber); err != nil {
			return fmt.Errorf("persist rotated session: %w", err)
		}
	}
	return nil
}
