package osc

import (
	"context"

	"github.com/hypebeast/go-osc/osc"

	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/output"
)

// Chatbox sends display updates to the VRChat chatbox.
type Chatbox struct {
	client *osc.Client
}

// NewChatbox creates a chatbox output targeting host:port.
func NewChatbox(host string, port int) *Chatbox {
	return &Chatbox{client: osc.NewClient(host, port)}
}

// Name identifies the chatbox in fan-out errors.
func (c *Chatbox) Name() string { return "chatbox" }

// SetTyping toggles the typing indicator.
func (c *Chatbox) SetTyping(ctx context.Context, typing bool) error {
	return c.send(ctx, osc.NewMessage(ChatboxTypingAddress, typing))
}

// Display shows the text immediately, skipping the in-game keyboard.
func (c *Chatbox) Display(ctx context.Context, u output.DisplayUpdate) error {
	return c.send(ctx, osc.NewMessage(ChatboxInputAddress, u.Text, true))
}

func (c *Chatbox) send(ctx context.Context, msg *osc.Message) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeCancelled, "chatbox send")
	}
	if err := c.client.Send(msg); err != nil {
		return apperrors.Wrap(err, apperrors.CodeOutputFailed, "chatbox send").
			WithMetadata("address", msg.Address)
	}
	return nil
}
