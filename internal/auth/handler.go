package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user"
)

const minPasswordLen = 6

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Result mirrors the success/error shape the sign-in form renders.
type Result struct {
	Success bool              `json:"success"`
	User    *Session          `json:"user,omitempty"`
	Token   string            `json:"token,omitempty"`
	Error   string            `json:"error,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func normalizeEmail(e string) string { return strings.ToLower(strings.TrimSpace(e)) }

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.writeJSON(w, http.StatusBadRequest, Result{Error: "invalid payload"})
		return
	}
	creds.Email = normalizeEmail(creds.Email)

	sess, err := h.svc.SignIn(r.Context(), creds)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			h.writeJSON(w, http.StatusUnauthorized, Result{Error: "Invalid credentials"})
		default:
			h.logger.Errorw("sign-in failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, Result{Error: "Authentication failed"})
		}
		return
	}
	h.respondSession(w, http.StatusOK, sess)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	var in SignUpInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeJSON(w, http.StatusBadRequest, Result{Error: "invalid payload"})
		return
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	if fields := validateSignUp(in); len(fields) > 0 {
		h.writeJSON(w, http.StatusBadRequest, Result{Error: "validation failed", Fields: fields})
		return
	}

	sess, err := h.svc.SignUp(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailExists):
			h.writeJSON(w, http.StatusConflict, Result{Error: "Email already exists. Please use a different email."})
		default:
			h.logger.Errorw("sign-up failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, Result{Error: "Registration failed"})
		}
		return
	}
	h.respondSession(w, http.StatusCreated, sess)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.svc.SignOut(r.Context())
	h.writeJSON(w, http.StatusOK, Result{Success: true})
}

// Session reports the current session; it does not require a token.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.svc.CurrentUser()
	if !ok {
		h.writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          sess,
		"canEdit":       h.svc.CanEditUser(r.URL.Query().Get("email")),
	})
}

func (h *Handler) EmailTaken(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := normalizeEmail(q.Get("email"))
	if email == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"taken": h.svc.IsEmailTaken(email, q.Get("exclude"))})
}

func (h *Handler) respondSession(w http.ResponseWriter, status int, sess *Session) {
	tok, err := h.svc.IssueToken(sess)
	if err != nil {
		h.logger.Errorw("issue token failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, Result{Error: "Authentication failed"})
		return
	}
	h.writeJSON(w, status, Result{Success: true, User: sess, Token: tok})
}

func validateSignUp(in SignUpInput) map[string]string {
	errs := map[string]string{}
	if in.FirstName == "" {
		errs["firstName"] = "First name is required"
	}
	if in.LastName == "" {
		errs["lastName"] = "Last name is required"
	}
	switch {
	case in.Email == "":
		errs["email"] = "Email is required"
	case !user.IsValidEmail(in.Email):
		errs["email"] = "Please enter a valid email address"
	}
	switch {
	case in.Password == "":
		errs["password"] = "Password is required"
	case len(in.Password) < minPasswordLen:
		errs["password"] = "Password must be at least 6 characters"
	case len(in.Password) > 72:
		// bcrypt input limit
		errs["password"] = "Password must be at most 72 bytes"
	}
	return errs
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type ctxKey struct{}

// SessionFrom returns the session RequireSession attached to ctx.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok
}

// RequireSession rejects requests without a bearer token for the current session.
func RequireSession(svc *Service, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				http.Error(w, "missing_token", http.StatusUnauthorized)
				return
			}
			sess, err := svc.VerifyToken(strings.TrimSpace(authz[len("bearer "):]))
			if err != nil {
				logger.Debugw("token rejected", "path", r.URL.Path, "err", err)
				http.Error(w, "invalid_token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, sess)))
		})
	}
}
