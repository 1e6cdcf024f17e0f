package handlers

import (
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/gatherly/app/internal/auth"
	"github.com/gatherly/app/internal/database"
)

const tokenTTL = 24 * time.Hour

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

// Register handles account creation and returns a bearer token.
func Register(store *database.Store, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		req.Phone = strings.TrimSpace(req.Phone)
		if req.Name == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
			writeError(w, http.StatusBadRequest, "name and a valid email are required")
			return
		}
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
			return
		}

		if _, err := store.GetUserByEmail(req.Email); err == nil {
			writeError(w, http.StatusConflict, "email already registered")
			return
		} else if err != sql.ErrNoRows {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}

		user, err := store.CreateUser(req.Name, req.Email, req.Phone, req.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not create user")
			return
		}

		token, err := verifier.Sign(user.ID, user.Email, tokenTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not issue token")
			return
		}

		writeJSON(w, http.StatusCreated, authResponse{Token: token, User: viewUser(user)})
	}
}

// Login handles credential verification and returns a bearer token.
func Login(store *database.Store, verifier *auth.Verifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
		if req.Email == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		user, err := store.GetUserByEmail(req.Email)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database error")
			return
		}
		if err := database.VerifyPassword(user.PasswordHash, req.Password); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}

		token, err := verifier.Sign(user.ID, user.Email, tokenTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not issue token")
			return
		}

		writeJSON(w, http.StatusOK, authResponse{Token: token, User: viewUser(user)})
	}
}
