package linebot

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/tray3forse/tasknag/internal/command"
	"github.com/tray3forse/tasknag/internal/config"
)

// WebhookHandler verifies and parses LINE webhook callbacks and feeds
// text-message events to the command handler, one event to completion at
// a time.
type WebhookHandler struct {
	channelSecret string
	handler       *command.Handler
}

func NewWebhookHandler(env *config.LINEEnv, handler *command.Handler) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: env.ChannelSecret,
		handler:       handler,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cb, err := webhook.ParseRequest(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, webhook.ErrInvalidSignature) {
			slog.WarnContext(r.Context(), "invalid webhook signature")
			w.WriteHeader(http.StatusBadRequest)
		} else {
			slog.ErrorContext(r.Context(), "failed to parse webhook request", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	for _, event := range cb.Events {
		ev, ok := chatEvent(event)
		if !ok {
			continue
		}
		// Per-event failures are logged and never fail the callback:
		// LINE retries the whole batch otherwise.
		if err := h.handler.HandleEvent(r.Context(), ev); err != nil {
			slog.ErrorContext(r.Context(), "failed to handle chat event", "owner_id", ev.OwnerID, "error", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

// chatEvent extracts the (owner, text) pair from a webhook event; only
// text messages from individual users are handled.
func chatEvent(event webhook.EventInterface) (command.Event, bool) {
	me, ok := event.(webhook.MessageEvent)
	if !ok {
		return command.Event{}, false
	}
	tm, ok := me.Message.(webhook.TextMessageContent)
	if !ok {
		return command.Event{}, false
	}
	src, ok := me.Source.(webhook.UserSource)
	if !ok {
		return command.Event{}, false
	}
	return command.Event{
		OwnerID:    src.UserId,
		Text:       strings.TrimSpace(tm.Text),
		ReplyToken: me.ReplyToken,
	}, true
}
