package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mich022001/sds-webapp/internal/handler"
	"github.com/mich022001/sds-webapp/internal/membership"
	"github.com/mich022001/sds-webapp/internal/middleware"
	"github.com/mich022001/sds-webapp/internal/store"
	ws "github.com/mich022001/sds-webapp/internal/websocket"
)

// Config carries the server-level knobs read from the environment.
type Config struct {
	IDPrefix string
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	memberH     *handler.MemberHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	memberStore := store.NewMemberStore(db)
	ledgerStore := store.NewLedgerStore(db)
	redemptionStore := store.NewRedemptionStore(db)
	summaryStore := store.NewSummaryStore(db)

	svc := membership.NewService(
		db, memberStore, ledgerStore, redemptionStore, summaryStore,
		cfg.IDPrefix, logger.With("component", "membership"),
	)

	return &Server{
		db:          db,
		hub:         hub,
		memberH:     handler.NewMemberHandler(svc, memberStore, ledgerStore, hub, logger.With("component", "member")),
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Writes are rate limited per client IP
	mux.HandleFunc("POST /api/registration", s.rateLimitedHandler(s.memberH.Register))
	mux.HandleFunc("POST /api/redemptions", s.rateLimitedHandler(s.memberH.Redeem))
	mux.HandleFunc("POST /api/members/{name}/distribute", s.rateLimitedHandler(s.memberH.Distribute))

	mux.HandleFunc("GET /api/members", s.memberH.ListMembers)
	mux.HandleFunc("GET /api/bonus-ledger", s.memberH.ListLedger)
	mux.HandleFunc("GET /api/summary/{name}", s.memberH.GetSummary)

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 30, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
