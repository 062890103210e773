package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/wolfman30/healthconnect/internal/backend"
	"github.com/wolfman30/healthconnect/pkg/logging"
)

// ContactBackend stores contact form submissions.
type ContactBackend interface {
	SubmitContact(ctx context.Context, req backend.ContactRequest) error
}

type ContactHandler struct {
	backend ContactBackend
	logger  *logging.Logger
}

func NewContactHandler(b ContactBackend, logger *logging.Logger) *ContactHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ContactHandler{backend: b, logger: logger}
}

const contactThanksMessage = "Thank you for contacting us. We will get back to you soon."

// Submit handles POST /contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req backend.ContactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if missing := missingFields(map[string]string{
		"name":    req.Name,
		"email":   req.Email,
		"subject": req.Subject,
		"message": req.Message,
	}); len(missing) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "Please fill in all required fields.", Fields: missing})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := h.backend.SubmitContact(r.Context(), req); err != nil {
		h.logger.Warn("contact submission failed", "error", err, "status", backend.StatusCode(err))
		jsonError(w, "Failed to send message. Please try again.", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": contactThanksMessage})
}
