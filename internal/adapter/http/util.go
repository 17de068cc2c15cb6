package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"focuslock/internal/app"
	"focuslock/internal/domain"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

// writeAuthError answers auth failures with a tagged result instead of a bare error.
func writeAuthError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
}

// writeServiceError maps domain and service errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		cardErr  *domain.CardError
		declined *app.UnlockDeclinedError
	)
	switch {
	case errors.As(err, &cardErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": cardErr.Message, "field": cardErr.Field})
	case errors.As(err, &declined):
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":          declined.Err.Error(),
			"unlockFee":      declined.NextFee,
			"unlockFeeText":  domain.FormatUSD(declined.NextFee),
			"unlockAttempts": declined.Attempts,
		})
	case errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrEmptyTaskTitle),
		errors.Is(err, domain.ErrEmptyApp),
		errors.Is(err, domain.ErrInvalidSettings),
		errors.Is(err, domain.ErrNegativeStat):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrSessionAlreadyActive),
		errors.Is(err, domain.ErrNoActiveSession),
		errors.Is(err, domain.ErrSessionNotLocked),
		errors.Is(err, app.ErrSessionNotFinished):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, domain.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return nil
}

func intQuery(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
