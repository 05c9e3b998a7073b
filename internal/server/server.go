// Package server exposes the mission lifecycle over a JSON HTTP API.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/opsdeck/missiond/internal/journal"
	"github.com/opsdeck/missiond/internal/lifecycle"
	"github.com/opsdeck/missiond/internal/loadout"
	"github.com/opsdeck/missiond/pkg/clog"
)

// Server wires the lifecycle controller, the loadout registry and the
// journal reader into an HTTP handler.
type Server struct {
	controller *lifecycle.Controller
	loadouts   *loadout.Registry
	reader     *journal.Reader
}

func New(controller *lifecycle.Controller, loadouts *loadout.Registry, reader *journal.Reader) *Server {
	return &Server{
		controller: controller,
		loadouts:   loadouts,
		reader:     reader,
	}
}

// Handler builds the routed handler with request logging and CORS.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(clog.SlogChiMiddleware(clog.WithChiFilter(func(r *http.Request) bool {
		return r.URL.Path != "/health"
	})))
	r.Use(cors.AllowAll().Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/missions", func(r chi.Router) {
			r.Post("/", s.createMission)
			r.Get("/", s.listMissions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getMission)
				r.Get("/context", s.getContext)
				r.Post("/context", s.updateContext)
				r.Post("/status", s.updateStatus)
				r.Post("/loadout", s.assignLoadout)
				r.Post("/tool-usage", s.recordToolUsage)
				r.Post("/log", s.addLogEntry)
				r.Post("/complete", s.completeMission)
				r.Post("/rebriefing", s.rebriefing)
				r.Get("/briefing", s.briefing)
				r.Get("/execution-plan", s.executionPlan)
				r.Get("/interim-debriefing", s.interimDebriefing)
				r.Get("/debriefing", s.debriefing)
				r.Get("/status-report", s.statusReport)
			})
		})
		r.Route("/loadouts", func(r chi.Router) {
			r.Get("/", s.listLoadouts)
			r.Post("/reload", s.reloadLoadouts)
			r.Get("/{id}", s.getLoadout)
		})
		r.Get("/logs/{channel}", s.readLog)
	})

	return r
}
