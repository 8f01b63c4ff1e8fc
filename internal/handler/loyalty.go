package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/HanzKay/KrasandApps-V1/internal/domain/auth"
	"github.com/HanzKay/KrasandApps-V1/internal/domain/loyalty"
)

type programBody struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	DurationType  string        `json:"duration_type"`
	DurationValue *int          `json:"duration_value"`
	Benefits      []benefitBody `json:"benefits"`
	IsGroup       bool          `json:"is_group"`
	Color         string        `json:"color"`
}

func (b programBody) program() loyalty.Program {
	p := loyalty.Program{
		Name:         b.Name,
		Description:  b.Description,
		DurationType: loyalty.DurationType(b.DurationType),
		Benefits:     make([]loyalty.Benefit, len(b.Benefits)),
		IsGroup:      b.IsGroup,
		Color:        b.Color,
	}
	if b.DurationValue != nil {
		p.DurationValue = *b.DurationValue
	}
	for i, bb := range b.Benefits {
		p.Benefits[i] = loyalty.Benefit{
			Type:        loyalty.BenefitType(bb.BenefitType),
			Value:       bb.Value,
			Description: bb.Description,
		}
	}
	return p
}

type assignBody struct {
	ProgramID   string   `json:"program_id"`
	CustomerIDs []string `json:"customer_ids"`
}

type assignResponse struct {
	Message     string               `json:"message"`
	Memberships []membershipResponse `json:"memberships"`
}

// CreateProgram stores a new loyalty program.
func (h *Handler) CreateProgram(w http.ResponseWriter, r *http.Request) {
	var body programBody
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.loyalty.CreateProgram(r.Context(), body.program())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgram(p))
}

// ListPrograms returns every program with its active member count.
func (h *Handler) ListPrograms(w http.ResponseWriter, r *http.Request) {
	views, err := h.loyalty.ListPrograms(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]programResponse, len(views))
	for i := range views {
		out[i] = toProgramView(&views[i], false)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProgram returns a program with its active members.
func (h *Handler) GetProgram(w http.ResponseWriter, r *http.Request) {
	v, err := h.loyalty.GetProgram(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgramView(v, true))
}

// UpdateProgram replaces a program definition.
func (h *Handler) UpdateProgram(w http.ResponseWriter, r *http.Request) {
	var body programBody
	if !decodeJSON(w, r, &body) {
		return
	}
	p, err := h.loyalty.UpdateProgram(r.Context(), chi.URLParam(r, "id"), body.program())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgram(p))
}

// DeleteProgram removes a program and cancels its memberships.
func (h *Handler) DeleteProgram(w http.ResponseWriter, r *http.Request) {
	if err := h.loyalty.DeleteProgram(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Program deleted"})
}

// AssignMemberships enrolls customers into a program.
func (h *Handler) AssignMemberships(w http.ResponseWriter, r *http.Request) {
	var body assignBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.ProgramID == "" {
		writeError(w, http.StatusBadRequest, "program_id is required")
		return
	}
	created, err := h.loyalty.AssignMemberships(r.Context(), body.ProgramID, body.CustomerIDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assignResponse{
		Message:     "Memberships assigned",
		Memberships: toMemberships(created),
	})
}

// ListMemberships returns memberships, optionally filtered by ?status=.
func (h *Handler) ListMemberships(w http.ResponseWriter, r *http.Request) {
	status := loyalty.MembershipStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}
	views, err := h.loyalty.ListMemberships(r.Context(), loyalty.MembershipFilter{Status: status})
	if err != nil {
		handleError(w, r, err)
		return
	}
	out := make([]membershipResponse, len(views))
	for i := range views {
		out[i] = toMemberView(&views[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// CancelMembership cancels one membership.
func (h *Handler) CancelMembership(w http.ResponseWriter, r *http.Request) {
	if err := h.loyalty.CancelMembership(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "Membership cancelled"})
}

// CustomerMemberships returns a customer's active memberships.
func (h *Handler) CustomerMemberships(w http.ResponseWriter, r *http.Request) {
	h.writeActiveMemberships(w, r, chi.URLParam(r, "id"))
}

// MyMemberships returns the caller's active memberships.
func (h *Handler) MyMemberships(w http.ResponseWriter, r *http.Request) {
	p, _ := auth.PrincipalFrom(r.Context())
	h.writeActiveMemberships(w, r, p.UserID)
}

func (h *Handler) writeActiveMemberships(w http.ResponseWriter, r *http.Request, customerID string) {
	ms, err := h.loyalty.CustomerMemberships(r.Context(), customerID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberships(ms))
}
