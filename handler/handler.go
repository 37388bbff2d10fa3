package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"line-companion/internal/domain"
	"line-companion/internal/integrations/line"
)

// maxBodyBytes caps the webhook body read; platform deliveries are small.
const maxBodyBytes = 1 << 20

// WebhookParser verifies and decodes an inbound webhook delivery.
type WebhookParser interface {
	VerifySignature(body []byte, signature string) error
	ParseEvents(body []byte) ([]domain.TextMessageEvent, error)
}

// TextMessageHandler receives each text event extracted from a delivery.
type TextMessageHandler interface {
	HandleTextMessage(ctx context.Context, ev domain.TextMessageEvent) error
}

// Handler serves the health and webhook callback endpoints.
type Handler struct {
	parser   WebhookParser
	composer TextMessageHandler
}

func New(parser WebhookParser, composer TextMessageHandler) (*Handler, error) {
	if parser == nil {
		return nil, errors.New("handler: webhook parser must not be nil")
	}
	if composer == nil {
		return nil, errors.New("handler: text message handler must not be nil")
	}
	return &Handler{parser: parser, composer: composer}, nil
}

// Register wires the two routes onto the router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/callback", h.Callback).Methods(http.MethodPost)
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Callback handles one webhook delivery. Only signature problems surface as
// HTTP errors; once the signature verifies the response is 200 "OK" no matter
// what happens downstream.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	signature := r.Header.Get(line.SignatureHeader)
	if signature == "" {
		http.Error(w, "Missing signature", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Invalid body", http.StatusBadRequest)
		return
	}

	if err := h.parser.VerifySignature(body, signature); err != nil {
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	deliveryID := uuid.NewString()
	events, err := h.parser.ParseEvents(body)
	if err != nil {
		// Signature was valid, so acknowledge the delivery anyway.
		slog.Error("failed to parse webhook events", "delivery_id", deliveryID, "err", err)
	}
	for _, ev := range events {
		if err := h.composer.HandleTextMessage(r.Context(), ev); err != nil {
			slog.Error("failed to handle text message", "delivery_id", deliveryID, "err", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
