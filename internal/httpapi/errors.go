package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/xaenox/docdesk/internal/assistant"
	"github.com/xaenox/docdesk/internal/auth"
	"github.com/xaenox/docdesk/internal/chat"
	"github.com/xaenox/docdesk/internal/documents"
	"github.com/xaenox/docdesk/internal/leads"
	"github.com/xaenox/docdesk/internal/validation"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusFor maps a service error to its HTTP status and client message.
// Unknown errors map to 500 with fallback.
func statusFor(err error, fallback string) (int, string) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Message
	case errors.Is(err, leads.ErrDuplicate):
		return http.StatusBadRequest, "Contact information already submitted for this conversation"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusBadRequest, "User with this email already exists"
	case errors.Is(err, chat.ErrEmptyQuestion):
		return http.StatusBadRequest, "Question is required"
	case errors.Is(err, documents.ErrUnsupportedType):
		return http.StatusBadRequest, "Only PDF and TXT files are allowed"
	case errors.Is(err, documents.ErrEmptyContent):
		return http.StatusBadRequest, "No text content found in file"
	case errors.Is(err, documents.ErrUnreadable):
		return http.StatusBadRequest, "Could not read file"
	case errors.Is(err, documents.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "File is too large"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid or expired token"
	case errors.Is(err, leads.ErrForbidden):
		return http.StatusForbidden, "Admin access required"
	case errors.Is(err, leads.ErrNotFound):
		return http.StatusNotFound, "Contact not found"
	case errors.Is(err, documents.ErrNotFound):
		return http.StatusNotFound, "Document not found"
	case errors.Is(err, assistant.ErrUnconfigured):
		return http.StatusServiceUnavailable, "AI service not configured. Please contact administrator."
	case errors.Is(err, assistant.ErrCompletion):
		return http.StatusBadGateway, "Failed to generate response"
	}
	return http.StatusInternalServerError, fallback
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status, msg := statusFor(err, fallback)
	if status >= http.StatusInternalServerError {
		h.report(r, err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *Handler) report(r *http.Request, err error) {
	h.logger.Error("Request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path))

	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("method", r.Method)
		scope.SetTag("path", r.URL.Path)
		if u := userFrom(r.Context()); u != nil {
			scope.SetUser(sentry.User{ID: u.ID})
		}
		hub.CaptureException(err)
	})
}
