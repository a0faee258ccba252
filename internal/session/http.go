package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPBackend talks to the hosted identity service: password grant at
// /token, registration at /signup and logout at /logout.
type HTTPBackend struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// NewHTTPBackend creates an identity service client. anonKey is sent as the
// apikey header on every request.
func NewHTTPBackend(baseURL, anonKey string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type credentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			Name string `json:"name"`
		} `json:"user_metadata"`
	} `json:"user"`
}

// SignIn exchanges email and password for tokens.
func (b *HTTPBackend) SignIn(ctx context.Context, email, password string) (Tokens, error) {
	var resp tokenResponse
	err := b.post(ctx, "/token?grant_type=password", "", credentials{Email: email, Password: password}, &resp)
	if err != nil {
		return Tokens{}, err
	}
	if resp.AccessToken == "" {
		return Tokens{}, errors.New("identity service returned no access token")
	}
	return Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User: User{
			ID:    resp.User.ID,
			Email: resp.User.Email,
			Name:  resp.User.UserMetadata.Name,
		},
	}, nil
}

// SignUp registers a new account with the display name stored as user metadata.
func (b *HTTPBackend) SignUp(ctx context.Context, email, password, name string) error {
	body := credentials{Email: email, Password: password}
	if name != "" {
		body.Data = map[string]any{"name": name}
	}
	return b.post(ctx, "/signup", "", body, nil)
}

// SignOut revokes the session behind accessToken.
func (b *HTTPBackend) SignOut(ctx context.Context, accessToken string) error {
	return b.post(ctx, "/logout", accessToken, nil, nil)
}

func (b *HTTPBackend) post(ctx context.Context, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.anonKey != "" {
		req.Header.Set("apikey", b.anonKey)
	}
	if bearer == "" {
		bearer = b.anonKey
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.New(errorMessage(resp))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode identity response: %w", err)
	}
	return nil
}

// errorMessage extracts the most descriptive message from an identity
// service error body.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		ErrorDescription string `json:"error_description"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		for _, s := range []string{body.ErrorDescription, body.Msg, body.Message, body.Error} {
			if s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("identity service returned status %d", resp.StatusCode)
}
