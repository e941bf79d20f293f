package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/gatehouse/internal/auth"
	"github.com/BradenHooton/gatehouse/internal/models"
	pkghttp "github.com/BradenHooton/gatehouse/pkg/http"
)

// UserServiceInterface defines the account operations used by the handlers
type UserServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	UpdateProfile(ctx context.Context, id, username, email string) (*models.Account, error)
}

// UserHandler serves the authenticated caller's own account
type UserHandler struct {
	service UserServiceInterface
	now     func() time.Time
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
		now:     time.Now,
	}
}

// UpdateProfileRequest represents the request body for PUT /auth/users/me.
// Omitted fields keep their current value.
type UpdateProfileRequest struct {
	Username string `json:"username" validate:"omitempty,max=64,excludes=@"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
}

// AccountResponse represents an account in the HTTP response
type AccountResponse struct {
	ID          string  `json:"id"`
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	IsActive    bool    `json:"is_active"`
	LastLoginAt *string `json:"last_login_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

func accountToResponse(account *models.Account) *AccountResponse {
	resp := &AccountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339),
	}
	if account.LastLoginAt != nil {
		ts := account.LastLoginAt.UTC().Format(time.RFC3339)
		resp.LastLoginAt = &ts
	}
	return resp
}

// GetMe returns the account bound to the bearer token. Deactivated
// accounts get 403.
//
// @Summary Current account
// @Produce json
// @Success 200 {object} AccountResponse
// @Failure 401,403 {object} pkghttp.ErrorResponse
// @Router /auth/users/me [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	principal := auth.GetPrincipalFromContext(r)
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	account, ok := h.activeAccount(w, r, principal.AccountID)
	if !ok {
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, accountToResponse(account))
}

// activeAccount loads the caller's account and writes the error response
// when it is missing or deactivated. Tokens outlive deactivation, so the
// check happens on every request.
func (h *UserHandler) activeAccount(w http.ResponseWriter, r *http.Request, id string) (*models.Account, bool) {
	account, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.now())
		return nil, false
	}
	if !account.IsActive {
		writeServiceError(w, models.ErrAccountInactive, h.now())
		return nil, false
	}
	return account, true
}

// UpdateMe changes the caller's username and/or email. The token stays
// valid across a rename because it is bound to the account ID.
//
// @Summary Update current account
// @Accept json
// @Produce json
// @Success 200 {object} AccountResponse
// @Failure 400,401,403 {object} pkghttp.ErrorResponse
// @Router /auth/users/me [put]
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	principal := auth.GetPrincipalFromContext(r)
	if principal == nil {
		pkghttp.WriteUnauthorized(w, "Not authenticated")
		return
	}

	if _, ok := h.activeAccount(w, r, principal.AccountID); !ok {
		return
	}

	var req UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), principal.AccountID, req.Username, req.Email)
	if err != nil {
		writeServiceError(w, err, h.now())
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, accountToResponse(account))
}
