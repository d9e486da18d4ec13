package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/ETAnderson/gatehouse/internal/admin"
	"github.com/ETAnderson/gatehouse/internal/api/authctx"
	"github.com/ETAnderson/gatehouse/internal/gate"
)

// AdminDedupeKeysHandler serves /v1/admin/dedupe-keys/{key}.
// DELETE clears the seen-marker so a redelivery of the event will be
// admitted again.
type AdminDedupeKeysHandler struct {
	Override admin.Override
	Logger   *slog.Logger
}

func (h AdminDedupeKeysHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := pathSuffix(r.URL.Path, "/v1/admin/dedupe-keys/")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid_key",
			"message": "dedupe key missing",
		})
		return
	}

	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := h.Override.ClearDedupeKey(r.Context(), key); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error":   "clear_failed",
			"message": err.Error(),
		})
		return
	}

	h.Logger.Info("dedupe key cleared",
		"dedupe_key", key,
		"operator", authctx.Subject(r.Context()),
	)
	writeJSON(w, http.StatusOK, map[string]any{"cleared": key})
}

// AdminCooldownsHandler serves /v1/admin/cooldowns/{threadID}.
// GET reports the remaining window; DELETE clears it.
type AdminCooldownsHandler struct {
	Override admin.Override
	Cooldown *gate.CooldownGate
	Logger   *slog.Logger
}

func (h AdminCooldownsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	threadID := pathSuffix(r.URL.Path, "/v1/admin/cooldowns/")
	if threadID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "invalid_thread_id",
			"message": "thread id missing",
		})
		return
	}

	switch r.Method {
	case http.MethodGet:
		remaining, ok := h.Cooldown.Remaining(r.Context(), threadID)
		body := map[string]any{
			"thread_id":         threadID,
			"cooldown_active":   ok,
			"remaining_seconds": 0,
		}
		if ok {
			body["remaining_seconds"] = int64(remaining.Seconds())
		}
		writeJSON(w, http.StatusOK, body)

	case http.MethodDelete:
		if err := h.Override.ClearCooldown(r.Context(), threadID); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":   "clear_failed",
				"message": err.Error(),
			})
			return
		}
		h.Logger.Info("cooldown cleared",
			"thread_id", threadID,
			"operator", authctx.Subject(r.Context()),
		)
		writeJSON(w, http.StatusOK, map[string]any{"cleared": threadID})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func pathSuffix(path string, prefix string) string {
	suffix := strings.TrimPrefix(path, prefix)
	if suffix == path {
		return ""
	}
	// Only first path segment
	if i := strings.IndexByte(suffix, '/'); i >= 0 {
		suffix = suffix[:i]
	}
	return strings.TrimSpace(suffix)
}
