package webapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/tray3forse/tasknag/internal/eventbus"
	"github.com/tray3forse/tasknag/internal/pushsubscription"
	"github.com/tray3forse/tasknag/internal/task"
	"github.com/tray3forse/tasknag/pkg/cerr"
)

// Server exposes the web-form mirror of the chat commands plus browser
// push subscription management.
type Server struct {
	repo task.Repository
	subs pushsubscription.Repository
	bus  *eventbus.Bus
}

func NewServer(repo task.Repository, subs pushsubscription.Repository, bus *eventbus.Bus) *Server {
	return &Server{
		repo: repo,
		subs: subs,
		bus:  bus,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Post("/tasks", s.createTask)
	r.Get("/tasks", s.listTasks)
	r.Post("/tasks/complete", s.completeTask)
	r.Post("/push/subscriptions", s.createSubscription)
	r.Delete("/push/subscriptions", s.deleteSubscription)
}

type taskJSON struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate,omitempty"`
	DueTime     string `json:"dueTime,omitempty"`
	Status      string `json:"status"`
	Notified    bool   `json:"notified"`
}

func toJSON(t *task.Task) taskJSON {
	return taskJSON{
		ID:          t.ID,
		Description: t.Description,
		DueDate:     t.DueDate,
		DueTime:     t.DueTime,
		Status:      string(t.Status),
		Notified:    t.Notified,
	}
}

type createTaskRequest struct {
	OwnerID     string `json:"ownerId"`
	Description string `json:"task"`
	DueDate     string `json:"date"`
	DueTime     string `json:"time"`
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.OwnerID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "ownerId is required", nil)
		return
	}
	if err := task.ValidateDescription(req.Description); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := task.ValidateDue(req.DueDate, req.DueTime); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	now := time.Now()
	t := &task.Task{
		ID:          ulid.Make().String(),
		OwnerID:     req.OwnerID,
		Description: req.Description,
		DueDate:     req.DueDate,
		DueTime:     req.DueTime,
		Status:      task.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskCreated, t.ID, t.OwnerID, nil)
	}
	cerr.SetJSONResponse(ctx, map[string]any{"task": toJSON(t)})
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "owner is required", nil)
		return
	}
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toJSON(t))
	}
	cerr.SetJSONResponse(ctx, map[string]any{"tasks": out})
}

type completeTaskRequest struct {
	OwnerID     string `json:"ownerId"`
	Description string `json:"task"`
}

func (s *Server) completeTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.OwnerID == "" || req.Description == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "ownerId and task are required", nil)
		return
	}
	affected, err := s.repo.Complete(ctx, req.OwnerID, req.Description)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if affected == 0 {
		cerr.SetNewJSONError(ctx, cerr.NotFound, "task not found", nil)
		return
	}
	if s.bus != nil {
		s.bus.PublishNew(eventbus.EventTaskCompleted, "", req.OwnerID, map[string]string{"description": req.Description})
	}
	cerr.SetJSONResponse(ctx, map[string]any{"completed": affected})
}

type subscriptionRequest struct {
	OwnerID  string `json:"ownerId"`
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.OwnerID == "" || req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "ownerId, endpoint and keys are required", nil)
		return
	}

	// Re-subscribing from the same browser replaces the old record.
	if existing, err := s.subs.FindByEndpoint(ctx, req.Endpoint); err == nil {
		if err := s.subs.Delete(ctx, existing.ID); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}

	sub := &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		OwnerID:   req.OwnerID,
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
		CreatedAt: time.Now(),
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"id": sub.ID})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req unsubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	if err := s.subs.DeleteByEndpoint(ctx, req.Endpoint); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, map[string]any{"deleted": true})
}
