package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mdabydeen/dashstate/internal/domain"
	"github.com/mdabydeen/dashstate/internal/gating"
	"github.com/mdabydeen/dashstate/internal/identity"
	"github.com/mdabydeen/dashstate/internal/navhistory"
	"github.com/mdabydeen/dashstate/internal/session"
	"github.com/mdabydeen/dashstate/internal/tabsync"
)

// StateHandler serves the persisted-state endpoints: session, chat state,
// navigation history, gated intervals, offers, and the pending action.
type StateHandler struct {
	*Handler
	sessions  *session.Holder
	chat      *session.ChatStateHolder
	pending   *session.PendingActionHolder
	nav       *navhistory.Stack
	intervals *gating.IntervalService
	hub       *tabsync.Registry
	offer     domain.OfferWindow
	now       func() time.Time
}

// NewStateHandler creates the state handler with all feature dependencies.
func NewStateHandler(
	base *Handler,
	sessions *session.Holder,
	chat *session.ChatStateHolder,
	pending *session.PendingActionHolder,
	nav *navhistory.Stack,
	intervals *gating.IntervalService,
	hub *tabsync.Registry,
) *StateHandler {
	return &StateHandler{
		Handler:   base,
		sessions:  sessions,
		chat:      chat,
		pending:   pending,
		nav:       nav,
		intervals: intervals,
		hub:       hub,
		offer:     gating.PressableOffer,
		now:       time.Now,
	}
}

// RegisterRoutes registers state routes.
func (h *StateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Put("/session", h.ApplySession)
		r.Delete("/session", h.ResetSession)

		r.Get("/chat-state", h.GetChatState)
		r.Put("/chat-state", h.SetChatState)
		r.Post("/chat-state/toggle", h.ToggleChatState)

		r.Get("/navigation", h.GetNavigation)
		r.Post("/navigation/record", h.RecordNavigation)
		r.Post("/navigation/pop", h.PopNavigation)

		r.Get("/sites/{siteID}/intervals", h.GetIntervals)

		r.Get("/offers/pressable", h.GetPressableOffer)

		r.Get("/pending-action", h.GetPendingAction)
		r.Put("/pending-action", h.SetPendingAction)
		r.Delete("/pending-action", h.ClearPendingAction)
	})
}

// notify fans a state-change event out to the device's other tabs.
func (h *StateHandler) notify(r *http.Request, kind, key string) {
	deviceID := identity.DeviceIDFromContext(r.Context())
	tabID := identity.TabIDFromContext(r.Context())
	h.hub.Broadcast(r.Context(), deviceID, tabsync.NewEvent(kind, key, tabID))
}

// GetSession returns the active session for the device, if any.
func (h *StateHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	s, active := h.sessions.Snapshot(r.Context(), deviceID)
	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": s.SessionID,
		"active":     active,
		"timestamp":  s.Timestamp,
	})
}

type applySessionRequest struct {
	SessionID string `json:"session_id"`
}

// ApplySession stores a session id for the device. An empty id mints a new
// one server-side.
func (h *StateHandler) ApplySession(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	var req applySessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		Error(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if len(sessionID) > 128 {
		Error(w, http.StatusBadRequest, "session_id_too_long")
		return
	}

	s := h.sessions.Apply(r.Context(), deviceID, sessionID)
	h.notify(r, "changed", h.sessions.Key())

	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id": s.SessionID,
		"timestamp":  s.Timestamp,
	})
}

// ResetSession removes the stored session for the device.
func (h *StateHandler) ResetSession(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	h.sessions.Reset(r.Context(), deviceID)
	h.notify(r, "removed", h.sessions.Key())

	JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// GetChatState returns the persisted chat widget state.
func (h *StateHandler) GetChatState(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	JSON(w, http.StatusOK, map[string]string{
		"state": string(h.chat.Current(r.Context(), deviceID)),
	})
}

type chatStateRequest struct {
	State string `json:"state"`
}

// SetChatState persists the given chat widget state.
func (h *StateHandler) SetChatState(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	var req chatStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	state := domain.ChatState(req.State)
	if !state.Valid() {
		Error(w, http.StatusBadRequest, "invalid_chat_state")
		return
	}

	h.chat.Set(r.Context(), deviceID, state)
	h.notify(r, "changed", h.chat.Key())

	JSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

// ToggleChatState flips the chat widget state and returns the new value.
func (h *StateHandler) ToggleChatState(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	next := h.chat.Toggle(r.Context(), deviceID)
	h.notify(r, "changed", h.chat.Key())

	JSON(w, http.StatusOK, map[string]string{"state": string(next)})
}

// GetNavigation returns the history stack and the current back link.
func (h *StateHandler) GetNavigation(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	entries := h.nav.Entries(r.Context(), deviceID)
	if entries == nil {
		entries = []domain.NavigationEntry{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"back":    h.nav.BackLink(r.Context(), deviceID),
	})
}

type recordNavigationRequest struct {
	Screen      string            `json:"screen"`
	QueryParams map[string]string `json:"query_params"`
	Period      string            `json:"period"`
	Reset       bool              `json:"reset"`
}

// RecordNavigation pushes the current screen onto the history stack.
// Unknown screens are acknowledged but not recorded.
func (h *StateHandler) RecordNavigation(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	var req recordNavigationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request_body")
		return
	}
	if req.Screen == "" {
		Error(w, http.StatusBadRequest, "screen_required")
		return
	}

	recorded := navhistory.KnownScreen(req.Screen)
	h.nav.Record(r.Context(), deviceID, domain.NavigationEntry{
		Screen:      req.Screen,
		QueryParams: req.QueryParams,
		Period:      req.Period,
	}, req.Reset)
	if recorded {
		h.notify(r, "changed", h.nav.Key())
	}

	JSON(w, http.StatusOK, map[string]interface{}{"recorded": recorded})
}

// PopNavigation removes the top entry and returns the new back link.
func (h *StateHandler) PopNavigation(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	back := h.nav.Pop(r.Context(), deviceID)
	h.notify(r, "changed", h.nav.Key())

	JSON(w, http.StatusOK, map[string]interface{}{"back": back})
}

// GetIntervals returns the stats intervals enriched with gating for a site.
// Entitlement read failures degrade to ungated definitions rather than an
// error response.
func (h *StateHandler) GetIntervals(w http.ResponseWriter, r *http.Request) {
	siteID, err := strconv.ParseInt(chi.URLParam(r, "siteID"), 10, 64)
	if err != nil || siteID < 0 {
		Error(w, http.StatusBadRequest, "invalid_site_id")
		return
	}

	intervals, err := h.intervals.Intervals(r.Context(), siteID)
	if err != nil {
		slog.Warn("Interval gating degraded to ungated", "site_id", siteID, "error", err)
		defs := gating.DefaultIntervals
		intervals = make([]domain.GatedInterval, len(defs))
		for i, def := range defs {
			intervals[i] = domain.GatedInterval{ID: def.ID, Label: def.Label, StatType: def.StatType}
		}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"intervals": intervals})
}

// GetPressableOffer evaluates the Pressable offer window.
func (h *StateHandler) GetPressableOffer(w http.ResponseWriter, r *http.Request) {
	billingSystem := r.URL.Query().Get("billing_system")
	referMode := r.URL.Query().Get("refer_mode") == "true"

	JSON(w, http.StatusOK, map[string]interface{}{
		"active":         h.offer.Active(h.now(), billingSystem, referMode),
		"start":          h.offer.Start,
		"end":            h.offer.End,
		"billing_system": h.offer.BillingSystem,
	})
}

// GetPendingAction returns the stored pending action, if fresh.
func (h *StateHandler) GetPendingAction(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	action, ok := h.pending.Get(r.Context(), deviceID)
	if !ok {
		action = json.RawMessage("null")
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"action":  action,
		"present": ok,
	})
}

// SetPendingAction stores the request body as the pending action.
func (h *StateHandler) SetPendingAction(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	var action json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		Error(w, http.StatusBadRequest, "invalid_request_body")
		return
	}

	h.pending.Set(r.Context(), deviceID, action)
	h.notify(r, "changed", h.pending.Key())

	JSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

// ClearPendingAction removes the stored pending action.
func (h *StateHandler) ClearPendingAction(w http.ResponseWriter, r *http.Request) {
	deviceID := identity.DeviceIDFromContext(r.Context())

	h.pending.Clear(r.Context(), deviceID)
	h.notify(r, "removed", h.pending.Key())

	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
