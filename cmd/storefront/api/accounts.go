package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/manzanit0/storefront/pkg/account"
)

type AccountController struct {
	accounts *account.Service
}

func NewAccountController(s *account.Service) *AccountController {
	return &AccountController{accounts: s}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// formValue accepts both JSON strings and numbers, as a text input would
// hand over either.
type formValue string

func (f *formValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = formValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a string or a number: %w", err)
	}

	*f = formValue(n.String())
	return nil
}

type signupRequest struct {
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Age       formValue `json:"age"`
}

func (g *AccountController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := g.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if !outcome.OK {
		c.JSON(http.StatusUnauthorized, outcome)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

func (g *AccountController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := g.accounts.Signup(c.Request.Context(), req.FirstName, req.LastName, string(req.Age))
	if !outcome.OK {
		c.JSON(http.StatusBadRequest, outcome)
		return
	}

	c.JSON(http.StatusCreated, outcome)
}
