package adapthttp

import (
	"errors"
	"io"
	"net/http"

	"focuslock/internal/app"
	"focuslock/internal/domain"
)

func (s *Server) handleLockSession(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID
	switch r.Method {
	case http.MethodGet:
		status, err := s.lock.Status(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodPost:
		// An empty body starts a session from the user's defaults.
		var in app.StartInput
		if err := parseJSON(r, &in); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		session, err := s.lock.Start(r.Context(), userID, in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"session": session})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLockComplete(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	entry, err := s.lock.CompleteNaturally(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry})
}

func (s *Server) handleLockUnlock(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var card domain.Card
	if err := parseJSON(r, &card); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := s.lock.Unlock(r.Context(), currentUser(r).ID, card)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entry": entry, "receipt": entry.UnlockPaymentID})
}

func (s *Server) handleLockAttempt(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	fee, err := s.lock.IncrementUnlockAttempt(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeFee(w, fee)
}

func (s *Server) handleLockFee(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	fee, err := s.lock.Fee(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeFee(w, fee)
}

func (s *Server) handleLockFeeReset(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	fee, err := s.lock.ResetUnlockFee(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeFee(w, fee)
}

func writeFee(w http.ResponseWriter, fee float64) {
	writeJSON(w, http.StatusOK, map[string]any{"unlockFee": fee, "unlockFeeText": domain.FormatUSD(fee)})
}

func (s *Server) handleLockHistory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	items, err := s.lock.History(r.Context(), currentUser(r).ID, intQuery(r, "limit", 50))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleLockUninstall(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	allowed, err := s.lock.UninstallAllowed(r.Context(), currentUser(r).ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"allowed": allowed})
}
