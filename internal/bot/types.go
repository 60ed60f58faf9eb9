// Package bot turns chat events into recorded expenses and summaries,
// independently of the chat platform carrying them.
package bot

import (
	"context"
	"time"

	"spesebot/internal/core"
	"spesebot/internal/services"
)

// Menu identifiers carried back in Selection.MenuID.
const (
	MenuCategory = "category"
	MenuWindow   = "window"
)

type (
	// Message is an inbound text message.
	Message struct {
		Platform  string
		ChannelID string
		UserID    string
		Username  string
		Text      string
		Direct    bool // sent in a one-to-one conversation with the bot
		FromBot   bool // authored by the bot itself
	}

	// Selection is a choice made on a menu previously sent with SendMenu.
	Selection struct {
		Platform  string
		ChannelID string
		UserID    string
		MenuID    string
		Value     string
	}

	Option struct {
		Label string
		Value string
	}

	// Menu is a single-choice prompt.
	Menu struct {
		ID      string
		Prompt  string
		Options []Option
	}
)

// Responder sends replies on the platform an event came from.
type Responder interface {
	Send(ctx context.Context, channelID, text string) error
	SendMenu(ctx context.Context, channelID string, menu Menu) error
}

// Handler consumes inbound events. *Dispatcher implements it; transports
// call it from one goroutine per event.
type Handler interface {
	HandleMessage(ctx context.Context, r Responder, m Message)
	HandleSelection(ctx context.Context, r Responder, s Selection)
}

// Recorder is the part of services.ExpenseService used by the dispatcher.
type Recorder interface {
	Record(ctx context.Context, e core.Expense, origin services.Origin) (string, error)
	Summarize(ctx context.Context, w core.Window, now time.Time) (core.Summary, error)
}

func (m Message) key() SessionKey {
	return SessionKey{Platform: m.Platform, ChannelID: m.ChannelID, UserID: m.UserID}
}

func (m Message) origin() services.Origin {
	return services.Origin{Platform: m.Platform, ChannelID: m.ChannelID, UserID: m.UserID}
}

func (s Selection) key() SessionKey {
	return SessionKey{Platform: s.Platform, ChannelID: s.ChannelID, UserID: s.UserID}
}

func (s Selection) origin() services.Origin {
	return services.Origin{Platform: s.Platform, ChannelID: s.ChannelID, UserID: s.UserID}
}
