// package account implements the login and signup forms on top of the
// dummyjson auth endpoints. Outcomes carry the exact texts shown to users.
package account

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/manzanit0/storefront/pkg/dummyjson"
	"github.com/manzanit0/storefront/pkg/whttp"
)

const (
	TitleSuccess = "Success"
	TitleError   = "Error"

	MsgLoginSuccessful    = "Login successful!"
	MsgInvalidCredentials = "Invalid login credentials!"
	MsgLoginUnavailable   = "Failed to login. Please try again later."

	MsgSignupSuccessful  = "Signup successful!"
	MsgAllFieldsRequired = "All fields are required!"
	MsgSignupFailed      = "Something went wrong"
	MsgSignupUnavailable = "Failed to sign up. Please try again later."
)

const DefaultExpiresInMins = 30

type Outcome struct {
	OK      bool   `json:"ok"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type API interface {
	Login(ctx context.Context, req dummyjson.LoginRequest) (*dummyjson.User, error)
	AddUser(ctx context.Context, req dummyjson.AddUserRequest) (*dummyjson.User, error)
}

type Service struct {
	api           API
	policy        whttp.Policy
	expiresInMins int
}

func NewService(api API, policy whttp.Policy, expiresInMins int) *Service {
	if expiresInMins <= 0 {
		expiresInMins = DefaultExpiresInMins
	}

	return &Service{api: api, policy: policy, expiresInMins: expiresInMins}
}

func (s *Service) Login(ctx context.Context, username, password string) Outcome {
	req := dummyjson.LoginRequest{Username: username, Password: password, ExpiresInMins: s.expiresInMins}
	u, err := whttp.Call(ctx, s.policy, func(ctx context.Context) (*dummyjson.User, error) {
		return s.api.Login(ctx, req)
	})
	if err != nil {
		slog.ErrorContext(ctx, "login", "error", err.Error(), "username", username)
		return failure(err, MsgInvalidCredentials, MsgLoginUnavailable)
	}

	slog.InfoContext(ctx, "user logged in", "username", u.Username, "user_id", u.ID)
	return Outcome{OK: true, Title: TitleSuccess, Message: MsgLoginSuccessful}
}

func (s *Service) Signup(ctx context.Context, firstName, lastName, age string) Outcome {
	if firstName == "" || lastName == "" || age == "" {
		return Outcome{Title: TitleError, Message: MsgAllFieldsRequired}
	}

	req := dummyjson.AddUserRequest{FirstName: firstName, LastName: lastName, Age: ParseAge(age)}
	u, err := whttp.Call(ctx, s.policy, func(ctx context.Context) (*dummyjson.User, error) {
		return s.api.AddUser(ctx, req)
	})
	if err != nil {
		slog.ErrorContext(ctx, "signup", "error", err.Error())
		return failure(err, MsgSignupFailed, MsgSignupUnavailable)
	}

	slog.InfoContext(ctx, "user signed up", "user_id", u.ID)
	return Outcome{OK: true, Title: TitleSuccess, Message: MsgSignupSuccessful}
}

// failure maps API rejections to their message, or rejected when the API gave
// none, and anything else to unavailable.
func failure(err error, rejected, unavailable string) Outcome {
	var apiErr *dummyjson.APIError
	if !errors.As(err, &apiErr) {
		return Outcome{Title: TitleError, Message: unavailable}
	}

	if apiErr.Message != "" {
		return Outcome{Title: TitleError, Message: apiErr.Message}
	}

	return Outcome{Title: TitleError, Message: rejected}
}

// ParseAge reads the leading base 10 integer of s after optional whitespace
// and sign, like "42 years" -> 42. It returns nil when there is none.
func ParseAge(s string) *int {
	s = strings.TrimLeft(s, " \t\n\r")

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}

	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}

	if end == digits {
		return nil
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}

	return &n
}
