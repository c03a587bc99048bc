package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"interprep/pkg/claims"
	"interprep/pkg/user"
)

type RegisterForm struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type LoginForm struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type Handler struct {
	Service    user.ServiceInterface
	Logger     *slog.Logger
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

func NewUserHandler(service user.ServiceInterface, logger *slog.Logger, secret string, accessTTL, refreshTTL time.Duration) *Handler {
	return &Handler{
		Service:    service,
		Logger:     logger,
		Secret:     secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		Now:        time.Now,
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}
	if req.Username == nil || req.Email == nil || req.Password == nil {
		writeError(w, http.StatusBadRequest, "Missing required fields", "Username, email, and password are required")
		return
	}

	u, err := h.Service.Register(*req.Username, *req.Email, *req.Password)
	switch {
	case errors.Is(err, user.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "Username already exists", "Please choose a different username")
		return
	case errors.Is(err, user.ErrEmailTaken):
		writeError(w, http.StatusConflict, "Email already exists", "An account with this email already exists")
		return
	case err != nil:
		h.Logger.Error("register", "error", err)
		writeError(w, http.StatusInternalServerError, "Error registering user", err.Error())
		return
	}

	h.respondWithTokens(w, u, "User registered successfully", http.StatusCreated, "register")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}
	if req.Username == nil || req.Password == nil {
		writeError(w, http.StatusBadRequest, "Missing username or password", "Both username and password are required")
		return
	}

	u, err := h.Service.Login(*req.Username, *req.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		h.Logger.Warn("login", "error", "unauthorized", "username", *req.Username)
		writeError(w, http.StatusUnauthorized, "Invalid username or password", "Please check your credentials and try again")
		return
	case err != nil:
		h.Logger.Error("login", "error", err)
		writeError(w, http.StatusInternalServerError, "Login failed", err.Error())
		return
	}

	h.respondWithTokens(w, u, "Login successful", http.StatusOK, "login")
}

// Refresh expects CheckJWT(refresh) in front of it.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	access, err := h.sign(c.Subject, claims.TypeAccess, h.AccessTTL)
	if err != nil {
		h.signingFailed(w, err)
		return
	}

	if ok := WriteResp(w, h.Logger, map[string]any{
		"message":      "Token refreshed",
		"access_token": access,
	}, http.StatusOK); ok {
		h.Logger.Info("refresh", "user", c.Subject)
	}
}

// Logout only acknowledges; tokens are dropped by the client.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}
	if ok := WriteResp(w, h.Logger, map[string]any{"message": "Logout successful"}, http.StatusOK); ok {
		h.Logger.Info("logout", "user", c.Subject)
	}
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	var c claims.Claims
	if ok := getClaimsFromContext(w, r, &c); !ok {
		return
	}

	u, err := h.Service.Get(c.Subject)
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, "User not found", "The user associated with this token no longer exists")
		return
	case err != nil:
		h.Logger.Error("me", "error", err)
		writeError(w, http.StatusInternalServerError, "Error loading user", err.Error())
		return
	}

	WriteResp(w, h.Logger, map[string]any{
		"message": "User retrieved successfully",
		"user":    u,
	}, http.StatusOK)
}

func (h *Handler) respondWithTokens(w http.ResponseWriter, u *user.User, message string, status int, action string) {
	access, err := h.sign(u.ID, claims.TypeAccess, h.AccessTTL)
	if err != nil {
		h.signingFailed(w, err)
		return
	}
	refresh, err := h.sign(u.ID, claims.TypeRefresh, h.RefreshTTL)
	if err != nil {
		h.signingFailed(w, err)
		return
	}

	if ok := WriteResp(w, h.Logger, map[string]any{
		"message":       message,
		"access_token":  access,
		"refresh_token": refresh,
		"user":          u,
	}, status); ok {
		h.Logger.Info(action, "user", u.ID)
	}
}

func (h *Handler) signingFailed(w http.ResponseWriter, err error) {
	h.Logger.Error("token signing", "error", err)
	writeError(w, http.StatusInternalServerError, "Token signing failed", err.Error())
}

func (h *Handler) sign(subject, tokenType string, ttl time.Duration) (string, error) {
	return claims.Sign(claims.New(subject, tokenType, ttl, h.Now()), h.Secret)
}

func DecodeJSONBody(w http.ResponseWriter, r *http.Request, req any) bool {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		writeError(w, http.StatusBadRequest, "Invalid Content-Type", "Expected application/json")
		return false
	}

	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "Bad JSON", err.Error())
		return false
	}

	return true
}

func WriteResp(w http.ResponseWriter, logger *slog.Logger, body map[string]any, status int) bool {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("failed to write JSON response", slog.Any("err", err))
		return false
	}
	return true
}

func getClaimsFromContext(w http.ResponseWriter, r *http.Request, c *claims.Claims) bool {
	val, ok := r.Context().Value(claims.TokenContextKey).(*claims.Claims)
	if !ok || val == nil || val.Subject == "" {
		writeError(w, http.StatusUnauthorized, "Unauthorized", "Missing token claims")
		return false
	}
	*c = *val
	return true
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message, "details": details})
}
