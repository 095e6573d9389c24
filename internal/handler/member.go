package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mich022001/sds-webapp/internal/membership"
	"github.com/mich022001/sds-webapp/internal/model"
	"github.com/mich022001/sds-webapp/internal/store"
	"github.com/mich022001/sds-webapp/internal/websocket"
)

// MemberHandler serves registration, redemption, distribution replay, and
// the list/summary reads.
type MemberHandler struct {
	svc         *membership.Service
	memberStore *store.MemberStore
	ledgerStore *store.LedgerStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewMemberHandler(svc *membership.Service, ms *store.MemberStore, ls *store.LedgerStore, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{svc: svc, memberStore: ms, ledgerStore: ls, hub: hub, logger: logger}
}

func (h *MemberHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type registrationRequest struct {
	Name           string `json:"name"`
	Contact        string `json:"contact"`
	Email          string `json:"email"`
	MembershipType string `json:"membershipType"`
	Address        string `json:"address"`
	Sponsor        string `json:"sponsor"`
	AreaRegion     string `json:"areaRegion"`
}

func (h *MemberHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	result, err := h.svc.Register(r.Context(), membership.RegisterInput{
		Name:           req.Name,
		Contact:        req.Contact,
		Email:          req.Email,
		MembershipType: req.MembershipType,
		Address:        req.Address,
		Sponsor:        req.Sponsor,
		AreaRegion:     req.AreaRegion,
	})
	if err != nil {
		h.writeServiceError(w, r.Context(), err, "failed to register member")
		return
	}

	h.broadcast(websocket.NewMessage("member", "registered", result.Name, map[string]any{
		"member_id": result.MemberID,
	}))
	if result.SponsorPromoted {
		h.broadcast(websocket.NewMessage("member", "promoted", result.SponsorName, nil))
	}
	for _, earner := range result.PaidEarners {
		h.broadcast(websocket.NewMessage("summary", "updated", earner, nil))
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "memberId": result.MemberID})
}

type redemptionRequest struct {
	MemberName string  `json:"memberName"`
	Type       string  `json:"type"`
	Qty        float64 `json:"qty"`
	Notes      string  `json:"notes"`
}

func (h *MemberHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redemptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	err := h.svc.Redeem(r.Context(), membership.RedeemInput{
		MemberName: req.MemberName,
		Type:       req.Type,
		Qty:        req.Qty,
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeServiceError(w, r.Context(), err, "failed to record redemption")
		return
	}

	h.broadcast(websocket.NewMessage("redemption", "recorded", req.MemberName, nil))
	h.broadcast(websocket.NewMessage("summary", "updated", req.MemberName, nil))

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Distribute replays commission distribution for a member. The ledger's
// idempotency key makes the replay a no-op for levels already paid.
func (h *MemberHandler) Distribute(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	paid, err := h.svc.Distribute(r.Context(), name)
	if err != nil {
		h.writeServiceError(w, r.Context(), err, "failed to distribute bonuses")
		return
	}

	for _, earner := range paid {
		h.broadcast(websocket.NewMessage("summary", "updated", earner, nil))
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "paid": len(paid)})
}

func (h *MemberHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberStore.List(parseLimit(r, 0))
	if err != nil {
		h.logger.Error("list members", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list members"})
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *MemberHandler) ListLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := h.ledgerStore.List(parseLimit(r, 200))
	if err != nil {
		h.logger.Error("list ledger", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list ledger"})
		return
	}
	if entries == nil {
		entries = []model.BonusLedgerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *MemberHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	summary, err := h.svc.GetSummary(name)
	if err != nil {
		h.logger.Error("get summary", "error", err, "member", name)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get summary"})
		return
	}

	// nil marshals to JSON null, matching "no summary yet"
	writeJSON(w, http.StatusOK, summary)
}

// writeServiceError maps service errors to responses: validation and
// business rule failures are client errors carrying the message, anything
// else is a generic server error with the cause logged.
func (h *MemberHandler) writeServiceError(w http.ResponseWriter, ctx context.Context, err error, fallback string) {
	switch {
	case errors.Is(err, membership.ErrNameRequired),
		errors.Is(err, membership.ErrMemberRequired),
		errors.Is(err, membership.ErrTypeInvalid),
		errors.Is(err, membership.ErrQtyNotPositive),
		errors.Is(err, membership.ErrDuplicateMember),
		errors.Is(err, membership.ErrSponsorNotFound),
		errors.Is(err, membership.ErrMemberNotFound),
		errors.Is(err, membership.ErrInsufficientBalance):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.ErrorContext(ctx, fallback, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": fallback})
	}
}

// parseLimit reads an optional limit query parameter; def applies when the
// parameter is absent or unparseable. The stores clamp the upper bound.
func parseLimit(r *http.Request, def int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
