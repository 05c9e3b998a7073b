package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/mission"
	"github.com/opsdeck/missiond/internal/missionctx"
	"github.com/opsdeck/missiond/pkg/cerr"
)

func (s *Server) createMission(w http.ResponseWriter, r *http.Request) {
	var spec mission.CreateSpec
	if !decode(w, r, &spec) {
		return
	}
	m, err := s.controller.Create(r.Context(), &spec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMissions(w http.ResponseWriter, r *http.Request) {
	var (
		missions []*mission.Mission
		err      error
	)
	if r.URL.Query().Get("archived") == "true" {
		missions, err = s.controller.ListArchived(r.Context())
	} else {
		missions, err = s.controller.ListActive(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, missions)
}

func (s *Server) getMission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.controller.Get(r.Context(), id)
	if cerr.IsCode(err, cerr.NotFound) {
		m, err = s.controller.GetArchived(r.Context(), id)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) getContext(w http.ResponseWriter, r *http.Request) {
	mc, err := s.controller.GetContext(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

func (s *Server) updateContext(w http.ResponseWriter, r *http.Request) {
	var patch missionctx.Patch
	if !decode(w, r, &patch) {
		return
	}
	mc, err := s.controller.UpdateContext(r.Context(), chi.URLParam(r, "id"), &patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mc)
}

type statusRequest struct {
	Status  mission.Status    `json:"status"`
	Stage   mission.Stage     `json:"stage,omitempty"`
	Context *missionctx.Patch `json:"context,omitempty"`
	Actor   string            `json:"actor,omitempty"`
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		writeError(w, r, cerr.NewError(cerr.InvalidArgument, "unknown status", nil))
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.controller.UpdateStatus(r.Context(), id, req.Status, req.Stage, req.Context, req.Actor); err != nil {
		writeError(w, r, err)
		return
	}
	m, err := s.controller.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type loadoutRequest struct {
	LoadoutID string `json:"loadout_id"`
}

func (s *Server) assignLoadout(w http.ResponseWriter, r *http.Request) {
	var req loadoutRequest
	if !decode(w, r, &req) {
		return
	}
	if req.LoadoutID == "" {
		writeError(w, r, cerr.NewError(cerr.InvalidArgument, "loadout_id is required", nil))
		return
	}
	if err := s.controller.AssignLoadout(r.Context(), chi.URLParam(r, "id"), req.LoadoutID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"loadout_id": req.LoadoutID})
}

type toolUsageRequest struct {
	Tool      string         `json:"tool"`
	Operation string         `json:"operation"`
	Data      map[string]any `json:"data,omitempty"`
}

func (s *Server) recordToolUsage(w http.ResponseWriter, r *http.Request) {
	var req toolUsageRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Tool == "" || req.Operation == "" {
		writeError(w, r, cerr.NewError(cerr.InvalidArgument, "tool and operation are required", nil))
		return
	}
	if err := s.controller.RecordToolUsage(r.Context(), chi.URLParam(r, "id"), req.Tool, req.Operation, req.Data); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type logRequest struct {
	Level   journal.Level  `json:"level,omitempty"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (s *Server) addLogEntry(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, r, cerr.NewError(cerr.InvalidArgument, "message is required", nil))
		return
	}
	if req.Level == "" {
		req.Level = journal.LevelInfo
	}
	if err := s.controller.AddLogEntry(r.Context(), chi.URLParam(r, "id"), req.Level, req.Message, req.Data); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type completeRequest struct {
	Completion map[string]any `json:"completion,omitempty"`
	Actor      string         `json:"actor,omitempty"`
}

func (s *Server) completeMission(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.controller.Complete(r.Context(), chi.URLParam(r, "id"), req.Completion, req.Actor)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) rebriefing(w http.ResponseWriter, r *http.Request) {
	var patch missionctx.Patch
	if !decode(w, r, &patch) {
		return
	}
	text, err := s.controller.Rebriefing(r.Context(), chi.URLParam(r, "id"), &patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, text)
}

func (s *Server) briefing(w http.ResponseWriter, r *http.Request) {
	text, err := s.controller.Briefing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, text)
}

func (s *Server) executionPlan(w http.ResponseWriter, r *http.Request) {
	text, err := s.controller.ExecutionPlan(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("phase"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, text)
}

func (s *Server) interimDebriefing(w http.ResponseWriter, r *http.Request) {
	text, err := s.controller.MidMissionDebriefing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, text)
}

func (s *Server) debriefing(w http.ResponseWriter, r *http.Request) {
	text, err := s.controller.Debriefing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, text)
}

func (s *Server) statusReport(w http.ResponseWriter, r *http.Request) {
	text, err := s.controller.StatusUpdate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeText(w, text)
}

func (s *Server) listLoadouts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.loadouts.List(r.URL.Query().Get("capability")))
}

func (s *Server) getLoadout(w http.ResponseWriter, r *http.Request) {
	l, err := s.loadouts.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) reloadLoadouts(w http.ResponseWriter, r *http.Request) {
	if err := s.loadouts.Reload(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"loadouts": s.loadouts.Len()})
}

func (s *Server) readLog(w http.ResponseWriter, r *http.Request) {
	ch := journal.Channel(chi.URLParam(r, "channel"))
	switch ch {
	case journal.ChannelActivity, journal.ChannelToolUsage, journal.ChannelContextChange:
	default:
		writeError(w, r, cerr.NewError(cerr.NotFound, "unknown log channel", nil))
		return
	}
	entries, err := s.reader.Read(r.Context(), ch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
