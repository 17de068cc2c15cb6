package adapthttp

import (
	"net/http"

	"focuslock/internal/domain"
)

type taskRef struct {
	ID string `json:"id"`
}

func (s *Server) handleFocusTasks(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID
	switch r.Method {
	case http.MethodGet:
		f, err := s.focus.Get(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"tasks": f.Tasks})
	case http.MethodPost:
		var body struct {
			Title string `json:"title"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		task, err := s.focus.AddTask(r.Context(), userID, body.Title)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"task": task})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleFocusTaskToggle(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var ref taskRef
	if err := parseJSON(r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	task, err := s.focus.ToggleTask(r.Context(), currentUser(r).ID, ref.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": task})
}

func (s *Server) handleFocusTaskRemove(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	var ref taskRef
	if err := parseJSON(r, &ref); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.focus.RemoveTask(r.Context(), currentUser(r).ID, ref.ID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"removed": ref.ID})
}

func (s *Server) handleFocusApps(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID
	var (
		apps []string
		err  error
	)
	switch r.Method {
	case http.MethodGet:
		var f domain.Focus
		f, err = s.focus.Get(r.Context(), userID)
		apps = f.BlockedApps
	case http.MethodPost:
		var body struct {
			App string `json:"app"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		apps, err = s.focus.AddBlockedApp(r.Context(), userID, body.App)
	case http.MethodDelete:
		apps, err = s.focus.RemoveBlockedApp(r.Context(), userID, r.URL.Query().Get("app"))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"apps": apps})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r).ID
	switch r.Method {
	case http.MethodGet:
		st, err := s.settings.Get(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	case http.MethodPatch:
		var patch domain.SettingsPatch
		if err := parseJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		st, err := s.settings.Update(r.Context(), userID, patch)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
