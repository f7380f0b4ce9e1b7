package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gatherly/apiserver/internal/auth"
	"github.com/gatherly/apiserver/internal/services"
	"github.com/gatherly/apiserver/internal/store"
	"github.com/gatherly/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

// UserHandler provides account and authentication endpoints.
type UserHandler struct {
	userService *services.UserService
	secret      []byte
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(userService *services.UserService, jwtSecret string) *UserHandler {
	return &UserHandler{
		userService: userService,
		secret:      []byte(jwtSecret),
	}
}

// UserRouter registers user routes on the given router.
func UserRouter(r chi.Router, userService *services.UserService, jwtSecret string) {
	handler := NewUserHandler(userService, jwtSecret)

	r.Post("/signup", handler.Signup)
	r.Post("/login", handler.Login)
	r.Get("/", handler.ListUsers)
	r.Get("/{userID}", handler.GetUser)
}

// Signup creates a new account and returns a session token.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body is required")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if fieldErrors := validateSignup(req); len(fieldErrors) > 0 {
		writeValidationError(w, fieldErrors)
		return
	}

	if _, err := h.userService.GetByEmail(r.Context(), req.Email); err == nil {
		writeError(w, http.StatusConflict, "Email already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusInternalServerError, "Failed to check email")
		return
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user, err := h.userService.Create(r.Context(), types.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "Email already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	token, err := auth.IssueToken(auth.Identity{ID: user.ID, Email: user.Email}, h.secret, auth.DefaultTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "User created successfully",
		User:    user,
		Token:   token,
	})
}

// Login verifies credentials and returns a session token. Unknown email
// and wrong password share one response so the endpoint does not reveal
// which accounts exist.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body is required")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.userService.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := auth.IssueToken(auth.Identity{ID: user.ID, Email: user.Email}, h.secret, auth.DefaultTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create token")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// ListUsers returns all accounts. Password hashes are never serialized.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Success: true,
		Message: "Users retrieved successfully",
		Users:   users,
		Count:   len(users),
	})
}

// GetUser returns a single account by id.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		Success: true,
		Message: "User retrieved successfully",
		User:    user,
	})
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    types.User `json:"user"`
	Token   string     `json:"token"`
}

type UserResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

type UserListResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Users   []types.User `json:"users"`
	Count   int          `json:"count"`
}

func validateSignup(req SignupRequest) []string {
	var fieldErrors []string
	if len(req.Name) < minNameLength {
		fieldErrors = append(fieldErrors, "Name must be at least 2 characters long")
	}
	if !strings.Contains(req.Email, "@") {
		fieldErrors = append(fieldErrors, "Valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		fieldErrors = append(fieldErrors, "Password must be at least 6 characters long")
	}
	return fieldErrors
}
