package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/billed-dev/billed/internal/model"
)

// HTTPStore talks to the bill service over HTTP.
type HTTPStore struct {
	Base  string
	Token string
	HTTP  *http.Client
}

// NewHTTPStore returns a store rooted at base that authenticates with token.
func NewHTTPStore(base, token string) *HTTPStore {
	return &HTTPStore{Base: strings.TrimRight(base, "/"), Token: token, HTTP: http.DefaultClient}
}

// Create posts the multipart form to /bills.
func (s *HTTPStore) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	if req.Data == nil {
		return CreateResult{}, fmt.Errorf("create bill: missing form data")
	}
	body, formType, err := req.Data.Encode()
	if err != nil {
		return CreateResult{}, fmt.Errorf("create bill: %w", err)
	}
	contentType := "application/json"
	if req.Headers.NoContentType {
		contentType = formType
	}

	var out CreateResult
	if err := s.do(ctx, http.MethodPost, "/bills", contentType, body, &out); err != nil {
		return CreateResult{}, err
	}
	return out, nil
}

// Update patches /bills/{selector} with the JSON bill.
func (s *HTTPStore) Update(ctx context.Context, req UpdateRequest) (model.Bill, error) {
	if req.Selector == "" {
		return model.Bill{}, fmt.Errorf("update bill: missing selector")
	}
	var out model.Bill
	path := "/bills/" + url.PathEscape(req.Selector)
	if err := s.do(ctx, http.MethodPatch, path, "application/json", req.Data, &out); err != nil {
		return model.Bill{}, err
	}
	return out, nil
}

// List fetches /bills.
func (s *HTTPStore) List(ctx context.Context) ([]model.Bill, error) {
	var out []model.Bill
	if err := s.do(ctx, http.MethodGet, "/bills", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Login exchanges credentials for a session user carrying a bearer token.
func (s *HTTPStore) Login(ctx context.Context, email, password string) (model.User, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return model.User{}, fmt.Errorf("encoding login: %w", err)
	}
	var out model.User
	if err := s.do(ctx, http.MethodPost, "/auth/login", "application/json", body, &out); err != nil {
		return model.User{}, err
	}
	return out, nil
}

func (s *HTTPStore) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.Base+path, r)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return NewError(resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

var _ Store = (*HTTPStore)(nil)
