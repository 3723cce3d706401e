package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/nadavital/pulse/internal/cache"
	"github.com/nadavital/pulse/internal/config"
	"github.com/nadavital/pulse/internal/gate"
	"github.com/nadavital/pulse/internal/llm"
	"github.com/nadavital/pulse/internal/models"
	"github.com/nadavital/pulse/internal/store"
)

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func writeRetryError(w http.ResponseWriter, status int, message, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Error: message,
		Code:  code,
		Retry: true,
	})
}

type Handlers struct {
	cfg   *config.Config
	store *store.Store
	cache *cache.Manager
	gate  *gate.Gate
	llm   *llm.Client
	clock clockwork.Clock
}

func NewHandlers(cfg *config.Config, s *store.Store, c *cache.Manager, g *gate.Gate, llmClient *llm.Client, clock clockwork.Clock) *Handlers {
	return &Handlers{
		cfg:   cfg,
		store: s,
		cache: c,
		gate:  g,
		llm:   llmClient,
		clock: clock,
	}
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:  "ok",
		LLM:     h.checkLLM(),
		Store:   h.checkStore(),
		Version: "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (h *Handlers) checkLLM() string {
	if h.llm == nil {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.llm.HealthCheck(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

func (h *Handlers) checkStore() string {
	if _, err := h.store.Revision(); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

// IngestFood handles POST /signals/food
func (h *Handlers) IngestFood(w http.ResponseWriter, r *http.Request) {
	var e models.FoodEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if e.Calories < 0 || e.ProteinG < 0 || e.CarbsG < 0 || e.FatG < 0 {
		writeError(w, http.StatusBadRequest, "macros must be non-negative", "INVALID_MACROS")
		return
	}

	e.ID = orNewID(e.ID)
	if e.LoggedAt.IsZero() {
		e.LoggedAt = h.clock.Now()
	}

	if err := h.store.AddFood(e); err != nil {
		log.Printf("ingest food: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record entry", "STORE_ERROR")
		return
	}

	h.writeIngested(w, e.ID)
}

// IngestWorkout handles POST /signals/workout. Re-posting the same
// session ID upgrades a live session to its completed form.
func (h *Handlers) IngestWorkout(w http.ResponseWriter, r *http.Request) {
	var s models.WorkoutSession
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if !s.Live && s.CompletedAt.IsZero() {
		s.CompletedAt = h.clock.Now()
	}
	if s.Live {
		s.CompletedAt = time.Time{}
	}

	s.ID = orNewID(s.ID)
	if s.StartedAt.IsZero() {
		s.StartedAt = h.clock.Now()
	}

	if err := h.store.AddWorkout(s); err != nil {
		log.Printf("ingest workout: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record session", "STORE_ERROR")
		return
	}

	h.writeIngested(w, s.ID)
}

// IngestWeight handles POST /signals/weight
func (h *Handlers) IngestWeight(w http.ResponseWriter, r *http.Request) {
	var e models.WeightEntry
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if e.WeightKg <= 0 {
		writeError(w, http.StatusBadRequest, "weight_kg must be positive", "INVALID_WEIGHT")
		return
	}

	e.ID = orNewID(e.ID)
	if e.LoggedAt.IsZero() {
		e.LoggedAt = h.clock.Now()
	}

	if err := h.store.AddWeight(e); err != nil {
		log.Printf("ingest weight: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record entry", "STORE_ERROR")
		return
	}

	h.writeIngested(w, e.ID)
}

// IngestReminder handles POST /signals/reminder
func (h *Handlers) IngestReminder(w http.ResponseWriter, r *http.Request) {
	var c models.ReminderCompletion
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if c.ReminderID == "" {
		writeError(w, http.StatusBadRequest, "reminder_id is required", "MISSING_REMINDER")
		return
	}

	c.ID = orNewID(c.ID)
	if c.CompletedAt.IsZero() {
		c.CompletedAt = h.clock.Now()
	}

	if err := h.store.AddCompletion(c); err != nil {
		log.Printf("ingest reminder: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record completion", "STORE_ERROR")
		return
	}

	h.writeIngested(w, c.ID)
}

// IngestBehavior handles POST /signals/behavior
func (h *Handlers) IngestBehavior(w http.ResponseWriter, r *http.Request) {
	var b models.BehaviorEvent
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if b.Kind == "" {
		writeError(w, http.StatusBadRequest, "kind is required", "MISSING_KIND")
		return
	}

	b.ID = orNewID(b.ID)
	if b.OccurredAt.IsZero() {
		b.OccurredAt = h.clock.Now()
	}

	if err := h.store.AddBehavior(b); err != nil {
		log.Printf("ingest behavior: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record event", "STORE_ERROR")
		return
	}

	h.writeIngested(w, b.ID)
}

func (h *Handlers) writeIngested(w http.ResponseWriter, id string) {
	rev, err := h.store.Revision()
	if err != nil {
		log.Printf("reading revision: %v", err)
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(models.IngestResponse{
		ID:       id,
		Status:   "accepted",
		Revision: rev,
	})
}

// CoachContext handles GET /coach/context. ?refresh=1 forces a rebuild.
func (h *Handlers) CoachContext(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("refresh") == "1"

	ctxData, hit, err := h.cache.Get(force)
	if err != nil {
		if errors.Is(err, cache.ErrUnavailable) {
			writeRetryError(w, http.StatusServiceUnavailable, "context unavailable", "CONTEXT_UNAVAILABLE")
			return
		}
		log.Printf("coach context: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to assemble context", "ASSEMBLY_ERROR")
		return
	}

	if hit {
		w.Header().Set("X-Pulse-Cache", "hit")
	} else {
		w.Header().Set("X-Pulse-Cache", "miss")
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ctxData)
}

// CoachMessage handles POST /coach/message: assembles the current
// context and asks the model for one push-style message.
func (h *Handlers) CoachMessage(w http.ResponseWriter, r *http.Request) {
	if h.llm == nil {
		writeRetryError(w, http.StatusServiceUnavailable, "llm not configured", "LLM_UNAVAILABLE")
		return
	}

	ctxData, _, err := h.cache.Get(false)
	if err != nil {
		writeRetryError(w, http.StatusServiceUnavailable, "context unavailable", "CONTEXT_UNAVAILABLE")
		return
	}

	allowed, err := h.gate.AllowQuestion("", false)
	if err != nil {
		log.Printf("gate check: %v", err)
		allowed = false
	}

	msg, err := llm.GenerateMessage(r.Context(), h.llm, ctxData.PromptSummary(512), ctxData.Tone, allowed)
	if err != nil {
		log.Printf("coach message: %v", err)
		writeRetryError(w, http.StatusBadGateway, "message generation failed", "LLM_ERROR")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(msg)
}

// CoachEligibility handles GET /coach/eligibility
func (h *Handlers) CoachEligibility(w http.ResponseWriter, r *http.Request) {
	allowed, err := h.gate.AllowQuestion(r.URL.Query().Get("question_id"), false)
	if err != nil {
		log.Printf("gate check: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read gate state", "GATE_ERROR")
		return
	}

	state, err := h.gate.CurrentState()
	if err != nil {
		log.Printf("gate state: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read gate state", "GATE_ERROR")
		return
	}

	next, err := h.gate.NextEligibleAt()
	if err != nil {
		log.Printf("gate next: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read gate state", "GATE_ERROR")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(models.EligibilityResponse{
		Allowed:   allowed,
		GateState: string(state),
		NextAt:    next,
	})
}

// CoachAnswer handles POST /coach/answer
func (h *Handlers) CoachAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "question_id is required", "MISSING_QUESTION")
		return
	}

	if err := h.gate.RecordAnswer(req.QuestionID); err != nil {
		log.Printf("record answer: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to record answer", "GATE_ERROR")
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "recorded"})
}

func orNewID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}
