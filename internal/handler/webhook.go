package handler

import (
	"encoding/json"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"zion-admin/internal/client"
	"zion-admin/internal/config"
	"zion-admin/internal/repository"
	"zion-admin/pkg/apperrors"
	"zion-admin/pkg/response"
)

const storeSignatureHeader = "X-Store-Hmac-SHA256"

// StoreWebhookHandler verifies inbound storefront webhooks and relays
// them to the automation endpoint.
type StoreWebhookHandler struct {
	cfg       *config.Store
	forwarder client.StoreForwarder
	events    repository.WebhookEventRepository
}

func NewStoreWebhookHandler(cfg *config.Store, forwarder client.StoreForwarder, events repository.WebhookEventRepository) *StoreWebhookHandler {
	return &StoreWebhookHandler{
		cfg:       cfg,
		forwarder: forwarder,
		events:    events,
	}
}

type storePayload struct {
	ID       string          `json:"id"`
	Event    string          `json:"event"`
	Resource json.RawMessage `json:"resource"`
}

func (h *StoreWebhookHandler) Handle(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.Error(c, apperrors.BadRequest("failed to read request body", err))
	}

	sig := c.Request().Header.Get(storeSignatureHeader)
	if !client.VerifyStoreSignature(h.cfg.WebhookSecret, raw, sig) {
		return response.Error(c, apperrors.Unauthorized("invalid webhook signature", nil))
	}

	var payload storePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return response.Error(c, apperrors.BadRequest("invalid webhook payload", err))
	}

	ctx := c.Request().Context()
	if payload.ID != "" {
		exists, err := h.events.Exists(ctx, payload.ID)
		if err != nil {
			return response.Error(c, apperrors.Internal("failed to check webhook event", err))
		}
		if exists {
			log.Info().Str("event_id", payload.ID).Msg("duplicate webhook event, skipping forward")
			return response.Success(c, map[string]any{"ok": true, "dedup": true})
		}
	}

	envelope := map[string]any{
		"event": payload.Event,
		"order": unwrapOrder(payload.Resource),
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return response.Error(c, apperrors.Internal("failed to encode forward payload", err))
	}

	if err := h.forwarder.Forward(ctx, body); err != nil {
		log.Error().Err(err).Str("event", payload.Event).Msg("webhook forward failed")
		return response.Error(c, apperrors.BadGateway("failed to forward webhook", err))
	}

	if payload.ID != "" {
		if err := h.events.MarkProcessed(ctx, payload.ID, payload.Event); err != nil {
			log.Error().Err(err).Str("event_id", payload.ID).Msg("failed to record webhook event")
		}
	}

	return response.Success(c, map[string]any{"ok": true})
}

// unwrapOrder flattens {resource:{order:{...}}} to the order object the
// automation flow expects, falling back to the resource itself.
func unwrapOrder(resource json.RawMessage) any {
	if len(resource) == 0 {
		return map[string]any{}
	}
	var res map[string]json.RawMessage
	if err := json.Unmarshal(resource, &res); err != nil {
		return json.RawMessage(resource)
	}
	if order, ok := res["order"]; ok {
		var obj map[string]any
		if err := json.Unmarshal(order, &obj); err == nil {
			return obj
		}
	}
	var obj map[string]any
	if err := json.Unmarshal(resource, &obj); err == nil {
		return obj
	}
	return json.RawMessage(resource)
}
