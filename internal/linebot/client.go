package linebot

import (
	"context"
	"fmt"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/tray3forse/tasknag/internal/config"
	"github.com/tray3forse/tasknag/internal/reminder"
)

// Client sends messages through the LINE messaging API. It implements
// both the evaluator's Pusher (push channel) and the command handler's
// Replier (reply channel).
type Client struct {
	api *messaging_api.MessagingApiAPI
}

func NewClient(env *config.LINEEnv) (*Client, error) {
	api, err := messaging_api.NewMessagingApiAPI(env.ChannelToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create LINE messaging client: %w", err)
	}
	return &Client{api: api}, nil
}

func (c *Client) Push(_ context.Context, ownerID string, messages []reminder.Message) error {
	if len(messages) == 0 {
		return nil
	}
	_, err := c.api.PushMessage(&messaging_api.PushMessageRequest{
		To:       ownerID,
		Messages: toLineMessages(messages),
	}, "")
	if err != nil {
		return fmt.Errorf("failed to push LINE message: %w", err)
	}
	return nil
}

func (c *Client) Reply(_ context.Context, replyToken string, messages []reminder.Message) error {
	if len(messages) == 0 {
		return nil
	}
	_, err := c.api.ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   toLineMessages(messages),
	})
	if err != nil {
		return fmt.Errorf("failed to reply LINE message: %w", err)
	}
	return nil
}

func toLineMessages(messages []reminder.Message) []messaging_api.MessageInterface {
	out := make([]messaging_api.MessageInterface, 0, len(messages))
	for _, m := range messages {
		switch m.Kind {
		case reminder.KindSticker:
			out = append(out, messaging_api.StickerMessage{
				PackageId: m.Sticker.PackageID,
				StickerId: m.Sticker.StickerID,
			})
		default:
			out = append(out, messaging_api.TextMessage{Text: m.Body})
		}
	}
	return out
}
