package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/BradenHooton/gatehouse/internal/models"
	"github.com/BradenHooton/gatehouse/internal/services"
	pkghttp "github.com/BradenHooton/gatehouse/pkg/http"
	pkglogger "github.com/BradenHooton/gatehouse/pkg/logger"
)

// maxBodyBytes bounds request bodies on the public endpoints
const maxBodyBytes = 16 << 10

// AuthGatewayInterface defines the login operation the handlers depend on
type AuthGatewayInterface interface {
	Authenticate(ctx context.Context, identity, secret string) (*services.AuthResult, error)
}

// AuthHandler handles token issuance and registration
type AuthHandler struct {
	gateway  AuthGatewayInterface
	users    UserServiceInterface
	ipConfig *pkghttp.IPConfig
	now      func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(gateway AuthGatewayInterface, users UserServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		gateway:  gateway,
		users:    users,
		ipConfig: ipConfig,
		now:      time.Now,
	}
}

// Request DTOs

// TokenRequest is the body of POST /auth/token, as JSON or as an
// application/x-www-form-urlencoded password grant
type TokenRequest struct {
	GrantType string `json:"grant_type" validate:"omitempty,eq=password"`
	Username  string `json:"username" validate:"required,max=254"`
	Password  string `json:"password" validate:"required"`
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64,excludes=@"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful POST /auth/token
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token exchanges a username and password for a bearer token
//
// @Summary Issue access token
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 200 {object} TokenResponse
// @Failure 400,401,403,429,503 {object} pkghttp.ErrorResponse
// @Router /auth/token [post]
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTokenRequest(w, r)
	if err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ctx := h.withRequestInfo(r)
	result, err := h.gateway.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
	})
}

// Register creates a new account
//
// @Summary Register account
// @Accept json
// @Produce json
// @Success 201 {object} AccountResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.users.Register(h.withRequestInfo(r), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, accountToResponse(account))
}

func (h *AuthHandler) withRequestInfo(r *http.Request) context.Context {
	return pkglogger.WithRequestInfo(r.Context(), pkglogger.RequestInfo{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.Header.Get("User-Agent"),
	})
}

func (h *AuthHandler) writeError(w http.ResponseWriter, err error) {
	writeServiceError(w, err, h.now())
}

// writeServiceError maps gateway and service errors onto HTTP responses.
// Messages are fixed strings so they never reveal which check failed.
func writeServiceError(w http.ResponseWriter, err error, now time.Time) {
	var locked *models.AccountLockedError
	switch {
	case errors.As(err, &locked):
		pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.", locked.RetryAfter(now))
	case errors.Is(err, models.ErrAccountLocked):
		pkghttp.WriteTooManyRequests(w, "Too many failed login attempts. Please try again later.", 0)
	case errors.Is(err, models.ErrInvalidInput):
		pkghttp.WriteBadRequest(w, err.Error())
	case errors.Is(err, models.ErrInvalidCredentials):
		pkghttp.WriteUnauthorized(w, "Incorrect username or password")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Not authenticated")
	case errors.Is(err, models.ErrAccountInactive):
		pkghttp.WriteForbidden(w, "Account is inactive")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteError(w, http.StatusBadRequest, "conflict", "Username or email already registered")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Account not found")
	case errors.Is(err, models.ErrUnavailable):
		pkghttp.WriteUnavailable(w, "Authentication is temporarily unavailable")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

func decodeTokenRequest(w http.ResponseWriter, r *http.Request) (TokenRequest, error) {
	var req TokenRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.GrantType = r.PostFormValue("grant_type")
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
		return req, nil
	default:
		err := decodeJSON(w, r, &req)
		return req, err
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
