package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xaenox/docdesk/internal/auth"
	"github.com/xaenox/docdesk/internal/chat"
	"github.com/xaenox/docdesk/internal/documents"
	"github.com/xaenox/docdesk/internal/leads"
	"github.com/xaenox/docdesk/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Handler struct {
	auth      *auth.Service
	documents *documents.Service
	chat      *chat.Service
	leads     *leads.Service
	metrics   *metrics.Metrics
	logger    *zap.Logger

	authLimiter *ipLimiter
}

func NewHandler(a *auth.Service, d *documents.Service, c *chat.Service, l *leads.Service, m *metrics.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		auth:      a,
		documents: d,
		chat:      c,
		leads:     l,
		metrics:   m,
		logger:    logger,
	}
}

// LimitAuth caps register and login attempts per client address to
// perMinute, allowing bursts of burst.
func (h *Handler) LimitAuth(perMinute float64, burst int) {
	if perMinute <= 0 {
		h.authLimiter = nil
		return
	}
	h.authLimiter = newIPLimiter(rate.Limit(perMinute/60), burst)
}

// Router wires every route. gatherer backs /metrics.
func (h *Handler) Router(gatherer prometheus.Gatherer) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", h.Index).Methods("GET")
	router.HandleFunc("/health", h.Health).Methods("GET")
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", h.rateLimited(h.Register)).Methods("POST")
	api.HandleFunc("/auth/login", h.rateLimited(h.Login)).Methods("POST")

	private := api.NewRoute().Subrouter()
	private.Use(h.requireAuth)
	private.HandleFunc("/documents/upload", h.UploadDocument).Methods("POST")
	private.HandleFunc("/documents", h.ListDocuments).Methods("GET")
	private.HandleFunc("/documents/{id}", h.DeleteDocument).Methods("DELETE")
	private.HandleFunc("/chat", h.Chat).Methods("POST")
	private.HandleFunc("/contacts/callback", h.SubmitCallback).Methods("POST")
	private.HandleFunc("/contacts/my-requests", h.MyRequests).Methods("GET")
	private.HandleFunc("/contacts/admin/all", h.AllContacts).Methods("GET")
	private.HandleFunc("/contacts/admin/{id}/status", h.UpdateContactStatus).Methods("PATCH")

	router.Use(h.loggingMiddleware)
	return router
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func NewHTTPServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}
