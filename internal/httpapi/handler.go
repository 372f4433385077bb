// Package httpapi exposes the assignment engine over HTTP, in the chi +
// cors router style of the transport API it replaces: thin handlers that
// delegate to the engine and encode JSON responses directly.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/janzill/fasttrips-go/internal/assign"
	"github.com/janzill/fasttrips-go/internal/config"
	"github.com/janzill/fasttrips-go/internal/models"
	"github.com/janzill/fasttrips-go/internal/pathfinder"
)

// Handler serves the assignment API against a fixed schedule store.
type Handler struct {
	store  assign.TripLister
	log    *logrus.Logger
	config config.Config
	search pathfinder.SearchConfig
}

func NewHandler(store assign.TripLister, log *logrus.Logger, cfg config.Config, search pathfinder.SearchConfig) *Handler {
	return &Handler{store: store, log: log, config: cfg, search: search}
}

// Routes mounts the API under r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Post("/assignments", h.RunAssignment)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// assignmentRequest is the wire shape of a POST /assignments body: one
// origin/destination/direction/preferred-time request per passenger.
type assignmentRequest struct {
	Seed       int64               `json:"seed"`
	Passengers []passengerRequest `json:"passengers"`
}

type passengerRequest struct {
	ID            int    `json:"id"`
	OriginTAZ     int32  `json:"origin_taz"`
	DestinationTAZ int32 `json:"destination_taz"`
	Direction     string `json:"direction"` // "OUTBOUND" or "INBOUND"
	PreferredTime int    `json:"preferred_time_sec"`
}

type assignmentResponse struct {
	RunID      string                    `json:"run_id"`
	Iterations []assign.IterationReport `json:"iterations"`
	Outcomes   []passengerOutcome       `json:"outcomes"`
}

type passengerOutcome struct {
	PassengerID         int    `json:"passenger_id"`
	Status              string `json:"status"`
	PathFound           bool   `json:"path_found"`
	DestinationArrival  int    `json:"destination_arrival_sec,omitempty"`
}

// RunAssignment decodes a passenger request set, runs the assign-simulate
// loop synchronously and returns per-iteration reports plus outcomes.
func (h *Handler) RunAssignment(w http.ResponseWriter, r *http.Request) {
	runID := uuid.New().String()
	log := h.log.WithField("run_id", runID)

	var req assignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	log.Infof("assignment request: %d passengers", len(req.Passengers))

	passengers := make([]*models.PassengerRuntime, 0, len(req.Passengers))
	for _, pr := range req.Passengers {
		dir := models.OUTBOUND
		if pr.Direction == "INBOUND" {
			dir = models.INBOUND
		}
		passengers = append(passengers, &models.PassengerRuntime{
			ID: pr.ID,
			Path: &models.Path{
				OriginTAZ:      models.TAZID(pr.OriginTAZ),
				DestinationTAZ: models.TAZID(pr.DestinationTAZ),
				Direction:      dir,
				PreferredTime:  pr.PreferredTime,
			},
		})
	}

	controller := assign.New(h.store, h.config, h.search, req.Seed)

	reports, err := controller.Run(context.Background(), passengers)
	if err != nil {
		log.WithError(err).Error("assignment run failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := assignmentResponse{RunID: runID, Iterations: reports}
	for _, pr := range passengers {
		outcome := passengerOutcome{
			PassengerID: pr.ID,
			Status:      pr.Status.String(),
			PathFound:   pr.Path != nil && pr.Path.PathFound(),
		}
		if pr.Log.HasDestinationArrival {
			outcome.DestinationArrival = pr.Log.DestinationArrival
		}
		resp.Outcomes = append(resp.Outcomes, outcome)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
