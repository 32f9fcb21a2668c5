package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Service) {
	t.Helper()
	store, _ := newTestStore(t)
	svc, _ := newTestService(t, store)
	logger := zaptest.NewLogger(t).Sugar()
	h := NewHandler(svc, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/signin", h.SignIn)
	mux.HandleFunc("POST /auth/signup", h.SignUp)
	mux.HandleFunc("POST /auth/signout", h.SignOut)
	mux.HandleFunc("GET /auth/session", h.Session)
	mux.HandleFunc("GET /auth/email-taken", h.EmailTaken)
	mux.Handle("GET /protected", RequireSession(svc, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sess.Email))
	})))
	return mux, svc
}

func post(t *testing.T, mux http.Handler, path string, body any) (*httptest.ResponseRecorder, Result) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, &buf))
	var res Result
	_ = json.Unmarshal(rec.Body.Bytes(), &res)
	return rec, res
}

func TestHandler_SignIn(t *testing.T) {
	mux, _ := newTestMux(t)

	rec, res := post(t, mux, "/auth/signin", Credentials{Email: "admin@example.com", Password: "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid credentials", res.Error)

	rec, res = post(t, mux, "/auth/signin", Credentials{Email: " Admin@Example.com ", Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.Token)
	require.NotNil(t, res.User)
	assert.Equal(t, "admin", res.User.Role)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "admin@example.com", rr.Body.String())
}

func TestHandler_SignUpAndConflict(t *testing.T) {
	mux, _ := newTestMux(t)
	in := SignUpInput{FirstName: "Jane", LastName: "Smith", Email: "jane@x.io", Password: "secret1"}

	rec, res := post(t, mux, "/auth/signup", in)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, res.Success)
	assert.Equal(t, "Jane Smith", res.User.Name)

	rec, res = post(t, mux, "/auth/signup", in)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Email already exists. Please use a different email.", res.Error)

	rec, res = post(t, mux, "/auth/signup", SignUpInput{Email: "bad", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "First name is required", res.Fields["firstName"])
	assert.Equal(t, "Please enter a valid email address", res.Fields["email"])
	assert.Equal(t, "Password must be at least 6 characters", res.Fields["password"])
}

func TestHandler_SignOutInvalidatesToken(t *testing.T) {
	mux, svc := newTestMux(t)
	_, res := post(t, mux, "/auth/signin", Credentials{Email: "admin@example.com", Password: "password123"})

	rec, _ := post(t, mux, "/auth/signout", map[string]string{})
	assert.Equal(t, http.StatusOK, rec.Code)
	_, ok := svc.CurrentUser()
	assert.False(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+res.Token)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestHandler_SessionAndEmailTaken(t *testing.T) {
	mux, _ := newTestMux(t)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/session", nil))
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	post(t, mux, "/auth/signup", SignUpInput{FirstName: "A", LastName: "B", Email: "a@x.io", Password: "secret1"})

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/session?email=a@x.io", nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["authenticated"])
	assert.Equal(t, true, body["canEdit"])

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/email-taken?email=A@x.io", nil))
	assert.JSONEq(t, `{"taken":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/email-taken", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireSession_MissingHeader(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
