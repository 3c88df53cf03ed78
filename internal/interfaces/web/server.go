package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/openswap-network/maker-daemon/internal/core/application"
	"github.com/openswap-network/maker-daemon/internal/core/ports"
)

// Server exposes the daemon's operator API over HTTP: querying peers through
// the relay, signing and settling orders, managing approvals, wrapping and
// intents. It is meant to listen on localhost; it carries no authentication.
type Server struct {
	peers    ports.PeerRequester
	signer   ports.Signer
	swap     ports.SwapContract
	vault    ports.WethVault
	approver ports.TokenApprover
	intents  application.IntentService
}

func NewServer(
	peers ports.PeerRequester,
	signer ports.Signer,
	swap ports.SwapContract,
	vault ports.WethVault,
	approver ports.TokenApprover,
	intents application.IntentService,
) *Server {
	return &Server{
		peers:    peers,
		signer:   signer,
		swap:     swap,
		vault:    vault,
		approver: approver,
		intents:  intents,
	}
}

// Handler builds the route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Post("/getOrder", s.peerProxy("getOrder"))
	r.Post("/getQuote", s.peerProxy("getQuote"))
	r.Post("/getMaxQuote", s.peerProxy("getMaxQuote"))

	r.Post("/signOrder", s.signOrder)
	r.Post("/fillOrder", s.fillOrder)

	r.Post("/wrapWeth", s.wrapWeth)
	r.Post("/unwrapWeth", s.unwrapWeth)
	r.Post("/approveTokenForTrade", s.approveToken)

	r.Post("/setIntents", s.setIntents)
	r.Post("/getIntents", s.getIntents)
	r.Post("/findIntents", s.findIntents)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		entry := log.WithFields(log.Fields{
			"request_id": uuid.NewString(),
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		next.ServeHTTP(w, r)
		entry.WithField("elapsed", time.Since(start)).Debug("handled request")
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
