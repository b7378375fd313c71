package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/felixgeelhaar/codequest/internal/auth"
	"github.com/felixgeelhaar/codequest/internal/domain"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService  *auth.Service
	cookieName   string
	cookieMaxAge int
	secureCookie bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, secureCookie bool, maxAge int) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		cookieName:   "session",
		cookieMaxAge: maxAge,
		secureCookie: secureCookie,
	}
}

// RegisterRequest is the request body for registration
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Image    string `json:"image"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the response for user data
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt"`
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Name:      user.Name,
		Image:     user.Image,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// Register handles user registration
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.authService.Register(r.Context(), auth.RegisterRequest{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Image:    req.Image,
	})

	switch {
	case errors.Is(err, auth.ErrEmailExists):
		jsonError(w, http.StatusConflict, "email already registered")
		return
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidEmail):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		jsonError(w, http.StatusInternalServerError, "registration failed")
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]any{
		"user": toUserResponse(user),
	})
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.authService.Login(r.Context(), auth.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})

	if errors.Is(err, auth.ErrInvalidCredentials) {
		jsonError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "login failed")
		return
	}

	// Set session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   h.cookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	jsonResponse(w, http.StatusOK, map[string]any{
		"user":  toUserResponse(result.User),
		"token": result.Token,
	})
}

// Logout handles user logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "not logged in")
		return
	}

	// Best effort; user is logging out either way
	_ = h.authService.Logout(r.Context(), cookie.Value)

	// Clear cookie
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	jsonResponse(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// Me returns the current user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookieName)
	if err != nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, _, err := h.authService.ValidateSession(r.Context(), cookie.Value)
	if err != nil {
		// Clear invalid cookie
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
		})
		jsonError(w, http.StatusUnauthorized, "session expired")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"user": toUserResponse(user),
	})
}
