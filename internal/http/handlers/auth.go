package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/hongminglow/carecrate/internal/auth"
	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/middleware"
	"github.com/hongminglow/carecrate/internal/models"
	"github.com/hongminglow/carecrate/internal/models/dto"
	"github.com/hongminglow/carecrate/internal/storage"
)

// AuthHandler owns staff register, login and session endpoints.
type AuthHandler struct {
	store  storage.StaffStore
	tokens *auth.TokenManager
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.StaffStore, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux, mw *middleware.Auth) {
	mux.HandleFunc("POST /register", mw.Optional(h.handleRegister))
	mux.HandleFunc("POST /login", h.handleLogin)
	mux.HandleFunc("GET /session", mw.RequireSession(h.handleSession))
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	if err := validateRegistration(req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	role := strings.TrimSpace(req.Role)
	if role == "" {
		role = models.VolunteerRole
	}
	if !models.ValidRole(role) {
		respond.Error(w, http.StatusBadRequest, "unknown role")
		return
	}
	if role == models.AdminRole && !middleware.SessionFromContext(r.Context()).IsAdmin() {
		respond.Error(w, http.StatusForbidden, "only an admin can register another admin")
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	user := models.StaffUser{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         role,
		PasswordHash: passwordHash,
	}
	if user.DisplayName == "" {
		user.DisplayName = user.Username
	}
	created, err := h.store.CreateStaff(r.Context(), user)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusConflict, "user already exists")
		default:
			log.Printf("create staff error: %v", err)
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, "user created", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !respond.Decode(w, r, &req) {
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "identifier and password are required")
		return
	}
	user, err := h.store.FindStaffByUsernameOrEmail(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		log.Printf("login failed: error fetching staff %s: %v", identifier, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) handleSession(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, "session", middleware.SessionFromContext(r.Context()))
}

func validateRegistration(req dto.RegisterRequest) error {
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" {
		return errors.New("username and email are required")
	}
	if !strings.Contains(req.Email, "@") {
		return errors.New("email is not valid")
	}
	return auth.ValidatePassword(req.Password)
}
