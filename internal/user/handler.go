package user

import (
	"encoding/json"
	"maps"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-userdir-go/internal/user/entity"
)

// Handler exposes HTTP endpoints for the user directory. It is the form
// layer: input is normalised and validated here before reaching Directory.
type Handler struct {
	dir    *Directory
	logger *zap.SugaredLogger
}

func NewHandler(dir *Directory, logger *zap.SugaredLogger) *Handler {
	return &Handler{dir: dir, logger: logger}
}

// ListResponse is the body of the list endpoint.
type ListResponse struct {
	Users []entity.User `json:"users"`
	Total int           `json:"total"`
	Query string        `json:"query,omitempty"`
}

type validationError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	users := h.dir.Search(q)
	h.writeJSON(w, http.StatusOK, ListResponse{Users: users, Total: len(h.dir.Users()), Query: q})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.dir.User(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, u)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in entity.UserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.logger.Debugw("invalid user payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	in = SanitizeInput(NormalizeFormInput(in))
	if fields := ValidateForm(in); len(fields) > 0 {
		h.writeJSON(w, http.StatusBadRequest, validationError{Error: "validation failed", Fields: fields})
		return
	}
	u, err := h.dir.AddUser(r.Context(), in)
	if err != nil {
		h.logger.Warnw("add user failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to add user"})
		return
	}
	h.writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	existing, err := h.dir.User(id)
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}

	var patch entity.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Debugw("invalid user patch", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	patch = SanitizePatch(patch)
	candidate := patch.Apply(*existing, h.dir.Now())
	fields := ValidateInput(inputOf(candidate))
	maps.Copy(fields, ValidatePatch(patch))
	if len(fields) > 0 {
		h.writeJSON(w, http.StatusBadRequest, validationError{Error: "validation failed", Fields: fields})
		return
	}

	if err := h.dir.UpdateUser(r.Context(), id, patch); err != nil {
		h.logger.Warnw("update user failed", "id", id, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to update user"})
		return
	}
	updated, err := h.dir.User(id)
	if err != nil {
		// deleted concurrently
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
		return
	}
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.dir.DeleteUser(r.Context(), id); err != nil {
		h.logger.Warnw("delete user failed", "id", id, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete user"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func inputOf(u entity.User) entity.UserInput {
	return entity.UserInput{Name: u.Name, Role: u.Role, ProfilePicture: u.ProfilePicture, Profile: u.Profile}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
