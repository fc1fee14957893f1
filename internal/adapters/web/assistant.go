package web

import (
	"net/http"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/internal/core"
)

// interpretBooking handles POST /api/assistant/interpret. Nothing is booked;
// the client shows the draft and posts it to /api/assistant/book on approval.
func (h *Handler) interpretBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.InterpretBooking(r.Context(), companyID(r), req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// bookDraft handles POST /api/assistant/book with a confirmed draft.
func (h *Handler) bookDraft(w http.ResponseWriter, r *http.Request) {
	var draft core.BookingDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	entry, err := h.svc.BookDraft(r.Context(), companyID(r), userID(r), draft)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeCreated(w, entry)
}
