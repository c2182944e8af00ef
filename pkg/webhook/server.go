package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vpnda/ledgerlink/db"
	"github.com/vpnda/ledgerlink/pkg/services"
)

// Webhook codes that mean new transaction data is available for an item.
// Anything else (item webhooks, auth events we don't act on) is
// acknowledged and dropped.
var transactionCodes = map[string]bool{
	"SYNC_UPDATES_AVAILABLE": true,
	"INITIAL_UPDATE":         true,
	"HISTORICAL_UPDATE":      true,
	"DEFAULT_UPDATE":         true,
}

// Server receives provider webhooks and exposes operational endpoints.
type Server struct {
	engine *services.Engine
	store  db.LedgerStore
	router *mux.Router
	logger zerolog.Logger

	// syncTimeout bounds the background job kicked off per webhook.
	syncTimeout time.Duration
}

func NewServer(engine *services.Engine, store db.LedgerStore) *Server {
	s := &Server{
		engine:      engine,
		store:       store,
		router:      mux.NewRouter(),
		logger:      log.With().Str("component", "webhook").Logger(),
		syncTimeout: 10 * time.Minute,
	}

	s.router.HandleFunc("/webhooks/provider", s.handleWebhook).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

type webhookPayload struct {
	WebhookType string `json:"webhook_type"`
	WebhookCode string `json:"webhook_code"`
	ItemID      string `json:"item_id"`
}

// handleWebhook resolves the provider item to a connection and kicks an
// asynchronous sync job. Unknown items and non-transaction webhook types
// are acknowledged with 200 so the provider does not retry them.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if payload.WebhookType != "TRANSACTIONS" || !transactionCodes[payload.WebhookCode] {
		s.logger.Debug().
			Str("type", payload.WebhookType).
			Str("code", payload.WebhookCode).
			Msg("ignoring non-transaction webhook")
		w.WriteHeader(http.StatusOK)
		return
	}

	conn, err := s.store.GetConnectionByItemID(r.Context(), payload.ItemID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve webhook item")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if conn == nil {
		s.logger.Debug().Str("item", payload.ItemID).Msg("ignoring webhook for unknown item")
		w.WriteHeader(http.StatusOK)
		return
	}

	go func(connectionID int64) {
		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		defer cancel()

		if err := s.engine.SyncConnection(ctx, connectionID); err != nil {
			// Lease rejection is expected when a webhook races a manual
			// sync; the running job will pick the same pages up.
			s.logger.Info().Err(err).Int64("connection", connectionID).Msg("webhook sync not started")
		}
	}(conn.ID)

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// ListenAndServe blocks serving the webhook and metrics endpoints.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info().Str("addr", addr).Msg("listening")
	return srv.ListenAndServe()
}
