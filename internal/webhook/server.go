// =============================
// File: internal/webhook/server.go
// =============================

// Package webhook receives transaction-notification payloads and feeds them
// through the trade event extractor.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rvlabs/pumpfun-sniper/internal/extract"
)

// TradeHandler consumes each trade recovered from a notification payload.
type TradeHandler func(ctx context.Context, signature string, trade *extract.ExtractedTrade)

// Server is the HTTP endpoint notification services POST to.
type Server struct {
	srv     *http.Server
	onTrade TradeHandler
	logger  *zap.Logger
}

// NewServer creates a webhook server listening on addr.
func NewServer(addr string, onTrade TradeHandler, logger *zap.Logger) *Server {
	s := &Server{
		onTrade: onTrade,
		logger:  logger.Named("webhook"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handle)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Webhook listener started", zap.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handle accepts a batch of webhook transactions. A payload that contains no
// recognizable trade is acknowledged all the same; absence of a trade is a
// normal outcome.
func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload []extract.WebhookTransaction
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Warn("Malformed webhook payload", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	for i := range payload {
		tx := &payload[i]
		trade := extract.FromWebhook(tx)
		if trade == nil {
			s.logger.Debug("No trade in webhook transaction",
				zap.String("signature", tx.Signature))
			continue
		}

		s.logger.Info("Trade extracted from webhook",
			zap.String("signature", tx.Signature),
			zap.String("mint", trade.TokenMint),
			zap.Bool("is_buy", trade.IsBuy),
			zap.Bool("is_sell", trade.IsSell),
			zap.Float64("price", trade.Price))

		if s.onTrade != nil {
			s.onTrade(r.Context(), tx.Signature, trade)
		}
	}

	w.WriteHeader(http.StatusOK)
}
