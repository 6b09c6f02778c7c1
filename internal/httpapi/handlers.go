package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/xaenox/docdesk/internal/auth"
	"github.com/xaenox/docdesk/internal/documents"
	"github.com/xaenox/docdesk/internal/leads"
	"github.com/xaenox/docdesk/internal/models"
)

// multipartOverhead is allowed on top of the document size limit for
// boundaries and part headers.
const multipartOverhead = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "docdesk backend is running",
		"endpoints": []string{
			"POST /api/auth/register",
			"POST /api/auth/login",
			"POST /api/documents/upload",
			"GET /api/documents",
			"DELETE /api/documents/{id}",
			"POST /api/chat",
			"POST /api/contacts/callback",
			"GET /api/contacts/my-requests",
			"GET /api/contacts/admin/all",
			"PATCH /api/contacts/admin/{id}/status",
		},
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func sessionResponse(message string, s *auth.Session) map[string]any {
	return map[string]any{
		"message": message,
		"token":   s.Token,
		"user": userResponse{
			ID:    s.User.ID,
			Name:  s.User.Name,
			Email: s.User.Email,
			Role:  string(s.User.Role),
		},
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.auth.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, "Failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse("User registered successfully", session))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.auth.Login(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse("Login successful", session))
}

func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.documents.MaxSize()+multipartOverhead)
	file, header, err := r.FormFile("document")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			h.writeError(w, r, documents.ErrTooLarge, "")
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No file uploaded"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, err, "Failed to upload document")
		return
	}

	doc, err := h.documents.Upload(r.Context(), user.ID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		h.writeError(w, r, err, "Failed to upload document")
		return
	}
	doc.Content = ""

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Document uploaded successfully",
		"document": doc,
	})
}

func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.documents.List(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err, "Failed to get documents")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	doc, err := h.documents.Delete(r.Context(), userFrom(r.Context()).ID, id)
	if err != nil {
		h.writeError(w, r, err, "Failed to delete document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Document deleted successfully",
		"deleted_document": map[string]string{
			"id":   doc.ID,
			"name": doc.OriginalName,
		},
	})
}

type chatRequest struct {
	Question           string `json:"question"`
	ConversationLength int    `json:"conversation_length"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.chat.Ask(r.Context(), userFrom(r.Context()).ID, req.Question, req.ConversationLength)
	if err != nil {
		if reply == nil {
			h.writeError(w, r, err, "Failed to generate response")
			return
		}
		status, _ := statusFor(err, "")
		if status == http.StatusInternalServerError {
			h.report(r, err)
		}
		writeJSON(w, status, reply)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type callbackContact struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	EstimatedCallTime time.Time `json:"estimated_call_time"`
}

func (h *Handler) SubmitCallback(w http.ResponseWriter, r *http.Request) {
	var req leads.CallbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	receipt, err := h.leads.Submit(r.Context(), userFrom(r.Context()).ID, req)
	if err != nil {
		h.writeError(w, r, err, "Failed to submit contact information")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Thank you! We'll contact you within 24 hours.",
		"contact": callbackContact{
			ID:                receipt.Lead.ID,
			Name:              receipt.Lead.Name,
			Email:             receipt.Lead.Email,
			EstimatedCallTime: receipt.EstimatedCallTime,
		},
	})
}

func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.leads.ListMine(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		h.writeError(w, r, err, "Failed to get contact requests")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contacts": contacts})
}

func (h *Handler) AllContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.LeadFilter{
		Status:   models.LeadStatus(q.Get("status")),
		Priority: models.Priority(q.Get("priority")),
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	result, err := h.leads.ListAll(r.Context(), userFrom(r.Context()), filter, page, limit)
	if err != nil {
		h.writeError(w, r, err, "Failed to get contacts")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contacts": result.Leads,
		"pagination": map[string]int{
			"page":  result.Page,
			"limit": result.Limit,
			"total": result.Total,
			"pages": result.Pages,
		},
	})
}

type statusRequest struct {
	Status models.LeadStatus `json:"status"`
	Notes  string            `json:"notes"`
}

func (h *Handler) UpdateContactStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lead, err := h.leads.UpdateStatus(r.Context(), userFrom(r.Context()), mux.Vars(r)["id"], req.Status, req.Notes)
	if err != nil {
		h.writeError(w, r, err, "Failed to update contact status")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contact": lead})
}
