// package dummyjson is a client for the public https://dummyjson.com test API,
// which serves the product catalog and the login and user creation endpoints.
package dummyjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/manzanit0/storefront/pkg/catalog"
)

const DefaultBaseURL = "https://dummyjson.com"

// APIError is returned for any non 2xx response. Message is whatever the API
// put in the "message" field, possibly empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected response: (%d)", e.StatusCode)
	}

	return fmt.Sprintf("unexpected response: (%d) %s", e.StatusCode, e.Message)
}

type Client struct {
	h    *http.Client
	host string
}

var _ catalog.Source = (*Client)(nil)

func NewClient(h *http.Client, host string) *Client {
	if host == "" {
		host = DefaultBaseURL
	}

	return &Client{h: h, host: strings.TrimSuffix(host, "/")}
}

type productsResponse struct {
	Products catalog.Catalog `json:"products"`
	Total    int             `json:"total"`
	Skip     int             `json:"skip"`
	Limit    int             `json:"limit"`
}

// Products fetches GET /products as served, without paging parameters.
func (c *Client) Products(ctx context.Context) (catalog.Catalog, error) {
	var d productsResponse
	if err := c.do(ctx, http.MethodGet, "/products", nil, &d); err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}

	if d.Products == nil {
		return catalog.Catalog{}, nil
	}

	return d.Products, nil
}

type LoginRequest struct {
	Username      string `json:"username"`
	Password      string `json:"password"`
	ExpiresInMins int    `json:"expiresInMins,omitempty"`
}

// User is the profile returned by the login and user creation endpoints.
// Tokens are not decoded.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       *int   `json:"age,omitempty"`
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &u); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	return &u, nil
}

// AddUserRequest mirrors POST /users/add. Age is sent as null when unset.
type AddUserRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       *int   `json:"age"`
}

func (c *Client) AddUser(ctx context.Context, req AddUserRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/users/add", req, &u); err != nil {
		return nil, fmt.Errorf("add user: %w", err)
	}

	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	} else {
		body = &bytes.Buffer{}
	}

	r, err := http.NewRequestWithContext(ctx, method, c.host+path, body)
	if err != nil {
		return err
	}

	if in != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.h.Do(r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
