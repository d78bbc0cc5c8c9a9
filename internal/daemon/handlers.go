package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ratthapon/talad/internal/catalog"
	"github.com/ratthapon/talad/internal/chat"
	"github.com/ratthapon/talad/internal/controller"
	"github.com/ratthapon/talad/internal/rest"
	"github.com/ratthapon/talad/internal/session"
	"github.com/ratthapon/talad/internal/store"
	"go.uber.org/zap"
)

type handlers struct {
	profileName string
	startedAt   time.Time
	db          *store.DB
	client      *rest.Client
	controllers Controllers
	chats       *chat.Manager
	blobs       rest.BlobStore
	logger      *zap.Logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// backendStatus maps a backend failure to a control API status. Backend
// HTTP errors pass their code through; anything else is a bad gateway.
func backendStatus(err error) int {
	var se *rest.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return http.StatusBadGateway
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"profile":        h.profileName,
		"pid":            os.Getpid(),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Token == "" || req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "token and user_id are required"})
		return
	}
	if err := h.db.SaveToken(store.TokenAuth, req.Token); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if err := h.db.SaveToken(store.TokenUserID, req.UserID); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.logger.Info("credentials stored", zap.String("user_id", req.UserID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.db.ClearTokens(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// settingsKey is the cache slot for the backend's app settings blob.
const settingsKey = "app"

// settings serves the backend's app settings, preferring the live copy and
// falling back to the last one cached in the profile store.
func (h *handlers) settings(w http.ResponseWriter, r *http.Request) {
	raw, err := h.client.FetchSettings(r.Context())
	if err == nil {
		if cacheErr := h.db.CacheSetting(settingsKey, string(raw)); cacheErr != nil {
			h.logger.Warn("settings cache write failed", zap.Error(cacheErr))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(raw)
		return
	}

	cached, fetchedAt, ok, cacheErr := h.db.CachedSetting(settingsKey)
	if cacheErr != nil || !ok {
		writeError(w, backendStatus(err), err)
		return
	}
	h.logger.Warn("serving cached settings", zap.Time("fetched_at", fetchedAt), zap.Error(err))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Talad-Cached-At", fetchedAt.UTC().Format(time.RFC3339))
	_, _ = w.Write([]byte(cached))
}

func (h *handlers) listChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.client.ListChats(r.Context())
	if err != nil {
		writeError(w, backendStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, chats)
}

type kindInfo struct {
	Kind           catalog.Kind     `json:"kind"`
	DetailEndpoint bool             `json:"detail_endpoint"`
	Phase          controller.Phase `json:"phase"`
	Cached         int              `json:"cached"`
}

func (h *handlers) kinds(w http.ResponseWriter, r *http.Request) {
	out := make([]kindInfo, 0, len(catalog.Kinds))
	for _, k := range catalog.Kinds {
		ctrl := h.controllers[k]
		out = append(out, kindInfo{
			Kind:           k,
			DetailEndpoint: k.HasDetailEndpoint(),
			Phase:          ctrl.Phase(),
			Cached:         ctrl.Size(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) runtime(w http.ResponseWriter, r *http.Request) (controller.Runtime, bool) {
	kind, err := catalog.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return nil, false
	}
	return h.controllers[kind], true
}

func (h *handlers) listListings(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.runtime(w, r)
	if !ok {
		return
	}

	refresh := r.URL.Query().Get("refresh") == "1"
	if refresh || ctrl.Phase() == controller.PhaseIdle {
		if err := ctrl.Load(r.Context()); err != nil && ctrl.Size() == 0 {
			writeError(w, backendStatus(err), err)
			return
		}
	}

	data, err := ctrl.ItemsJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (h *handlers) createListing(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.runtime(w, r)
	if !ok {
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := ctrl.CreateJSON(r.Context(), payload)
	if err != nil {
		var ve *catalog.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, backendStatus(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(data)
}

func (h *handlers) updateListing(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.runtime(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	id := catalog.ID(chi.URLParam(r, "id"))
	data, report, err := ctrl.UpdateJSON(r.Context(), id, fields)
	if err != nil {
		writeError(w, backendStatus(err), err)
		return
	}

	resp := map[string]any{"record": json.RawMessage(data)}
	if report != nil && !report.Clean() {
		resp["dropped"] = report.Dropped
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) deleteListing(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.runtime(w, r)
	if !ok {
		return
	}
	id := catalog.ID(chi.URLParam(r, "id"))
	if err := ctrl.DeleteListing(r.Context(), id); err != nil {
		writeError(w, backendStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) openScreen(w http.ResponseWriter, r *http.Request) (*chat.Screen, bool) {
	chatID := chi.URLParam(r, "chatID")
	scr, err := h.chats.Open(r.Context(), chatID)
	if err != nil {
		if errors.Is(err, session.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, err)
		} else {
			writeError(w, backendStatus(err), err)
		}
		return nil, false
	}
	return scr, true
}

func (h *handlers) listMessages(w http.ResponseWriter, r *http.Request) {
	scr, ok := h.openScreen(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, scr.Messages())
}

func (h *handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	scr, ok := h.openScreen(w, r)
	if !ok {
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		h.sendMediaMessage(w, r, scr)
		return
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := scr.SendText(r.Context(), req.Body); err != nil {
		writeError(w, backendStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, scr.Messages())
}

func (h *handlers) sendMediaMessage(w http.ResponseWriter, r *http.Request, scr *chat.Screen) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	mediaKind := r.FormValue("media_kind")
	file, header, err := r.FormFile("media")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := scr.SendMedia(r.Context(), mediaKind, header.Filename, data); err != nil {
		writeError(w, backendStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, scr.Messages())
}

func (h *handlers) closeChat(w http.ResponseWriter, r *http.Request) {
	h.chats.Close(chi.URLParam(r, "chatID"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) uploadMedia(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path query parameter is required"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 32<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	url, err := h.blobs.Upload(r.Context(), path, data, r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, backendStatus(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
