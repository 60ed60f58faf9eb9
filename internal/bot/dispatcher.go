package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"spesebot/internal/core"
	"spesebot/internal/log"
)

// Fixed replies.
const (
	MsgInvalidFormat   = "Invalid format. Use: `Item, Amount`"
	MsgSaveFailed      = "Error saving expense. Please try again later."
	MsgNoExpenses      = "No expenses found for the selected period."
	MsgSummaryFailed   = "Error generating summary. Please try again later."
	MsgEnterExpense    = "Enter the expense as: Item, Amount"
	MsgSelectCategory  = "Select a category:"
	MsgSelectWindow    = "Select a period:"
	MsgUnknownCategory = "Unknown category."
)

// Options configures a Dispatcher.
type Options struct {
	Prefix       string
	Catalog      core.Catalog
	ReplyTimeout time.Duration
	// AcceptBare records messages of the form "item, amount" without a command.
	AcceptBare bool
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// Dispatcher routes chat events to the add, guided add and summary handlers.
// It is safe for concurrent use; each event is expected on its own goroutine.
type Dispatcher struct {
	rec      Recorder
	sessions *Sessions
	opts     Options
	logger   *log.Logger
}

func NewDispatcher(rec Recorder, sessions *Sessions, opts Options, logger *log.Logger) *Dispatcher {
	if opts.Prefix == "" {
		opts.Prefix = "!"
	}
	if opts.ReplyTimeout <= 0 {
		opts.ReplyTimeout = 2 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if sessions == nil {
		sessions = NewSessions()
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Dispatcher{
		rec:      rec,
		sessions: sessions,
		opts:     opts,
		logger:   logger.WithComponent(log.ComponentBot),
	}
}

// Sessions returns the registry of pending guided adds.
func (d *Dispatcher) Sessions() *Sessions {
	return d.sessions
}

// Usage is the hint sent for messages the bot does not understand.
func (d *Dispatcher) Usage() string {
	p := d.opts.Prefix
	return strings.Join([]string{
		"Commands:",
		p + "add Item, Amount - record an expense",
		p + "add - pick a category, then send Item, Amount",
		p + "summary [1m|2m|6m|all] - totals per category",
	}, "\n")
}

func (d *Dispatcher) timedOutMessage() string {
	return fmt.Sprintf("Timed out waiting for the expense. Send %sadd to start again.", d.opts.Prefix)
}

// HandleMessage processes one inbound message.
func (d *Dispatcher) HandleMessage(ctx context.Context, r Responder, m Message) {
	if m.FromBot || !m.Direct {
		return
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}

	name, args, isCommand := d.splitCommand(text)
	if !isCommand {
		// A guided add waiting on this conversation takes the message first.
		if d.sessions.Deliver(m.key(), text) {
			return
		}
		if d.opts.AcceptBare && strings.Contains(text, ",") {
			d.handleAdd(ctx, r, m, "", text)
			return
		}
		d.reply(ctx, r, m.ChannelID, d.Usage())
		return
	}

	if d.sessions.Cancel(m.key()) {
		d.logger.DebugContext(ctx, "Pending guided add cancelled by command",
			log.FieldCommand, name, log.FieldChannelID, m.ChannelID, log.FieldUserID, m.UserID)
	}

	switch name {
	case "add":
		if args == "" {
			d.sendCategoryMenu(ctx, r, m.ChannelID)
			return
		}
		d.handleAdd(ctx, r, m, "", args)
	case "summary":
		if args == "" {
			d.sendWindowMenu(ctx, r, m.ChannelID)
			return
		}
		w, err := core.ParseWindow(args)
		if err != nil {
			d.reply(ctx, r, m.ChannelID, "Unknown period. Use one of: "+windowKeys())
			return
		}
		d.handleSummary(ctx, r, m.ChannelID, w)
	default:
		d.reply(ctx, r, m.ChannelID, d.Usage())
	}
}

// HandleSelection processes a menu choice. A category choice blocks until
// the follow-up message arrives, the wait times out, or it is cancelled.
func (d *Dispatcher) HandleSelection(ctx context.Context, r Responder, s Selection) {
	switch s.MenuID {
	case MenuCategory:
		category, ok := d.opts.Catalog.Lookup(s.Value)
		if !ok {
			d.reply(ctx, r, s.ChannelID, MsgUnknownCategory)
			return
		}
		d.awaitExpense(ctx, r, s, category)
	case MenuWindow:
		w, err := core.ParseWindow(s.Value)
		if err != nil {
			d.reply(ctx, r, s.ChannelID, "Unknown period. Use one of: "+windowKeys())
			return
		}
		d.handleSummary(ctx, r, s.ChannelID, w)
	default:
		d.logger.WarnContext(ctx, "Ignoring selection from unknown menu", "menu_id", s.MenuID)
	}
}

func (d *Dispatcher) awaitExpense(ctx context.Context, r Responder, s Selection, category string) {
	pending, err := d.sessions.Begin(s.key())
	if err != nil {
		return
	}
	if err := r.Send(ctx, s.ChannelID, MsgEnterExpense); err != nil {
		d.sessions.Cancel(s.key())
		d.logger.ErrorContext(ctx, "Failed to send prompt", log.FieldError, err)
		return
	}

	text, err := pending.Wait(ctx, d.opts.ReplyTimeout)
	switch {
	case err == nil:
		d.handleAdd(ctx, r, Message{
			Platform:  s.Platform,
			ChannelID: s.ChannelID,
			UserID:    s.UserID,
		}, category, text)
	case errors.Is(err, ErrReplyTimeout):
		d.logger.InfoContext(ctx, "Guided add timed out",
			log.FieldChannelID, s.ChannelID, log.FieldUserID, s.UserID, log.FieldCategory, category)
		d.reply(ctx, r, s.ChannelID, d.timedOutMessage())
	default:
		// Replaced by a newer interaction, cancelled by a command, or shutting down.
		d.logger.DebugContext(ctx, "Guided add ended", "reason", err)
	}
}

func (d *Dispatcher) handleAdd(ctx context.Context, r Responder, m Message, category, payload string) {
	e, err := core.NewExpense(d.opts.Now(), category, payload)
	if err != nil {
		d.logger.InfoContext(ctx, "Rejected expense input",
			log.FieldOperation, log.OpParse, log.FieldUserID, m.UserID, log.FieldError, err)
		d.reply(ctx, r, m.ChannelID, MsgInvalidFormat)
		return
	}

	if _, err := d.rec.Record(ctx, e, m.origin()); err != nil {
		d.logger.ErrorContext(ctx, "Failed to record expense",
			log.NewFields().
				WithOperation(log.OpAppend).
				WithSender(m.Platform, m.ChannelID, m.UserID).
				WithError(err).
				ToSlice()...,
		)
		d.reply(ctx, r, m.ChannelID, MsgSaveFailed)
		return
	}

	d.reply(ctx, r, m.ChannelID, savedMessage(e))
}

func (d *Dispatcher) handleSummary(ctx context.Context, r Responder, channelID string, w core.Window) {
	sum, err := d.rec.Summarize(ctx, w, d.opts.Now())
	if err != nil {
		d.logger.ErrorContext(ctx, "Failed to generate summary",
			log.FieldOperation, log.OpSummary, log.FieldWindow, w.Key, log.FieldError, err)
		d.reply(ctx, r, channelID, MsgSummaryFailed)
		return
	}
	if sum.IsEmpty() {
		d.reply(ctx, r, channelID, MsgNoExpenses)
		return
	}
	d.reply(ctx, r, channelID, sum.Render())
}

func (d *Dispatcher) sendCategoryMenu(ctx context.Context, r Responder, channelID string) {
	names := d.opts.Catalog.Names()
	menu := Menu{ID: MenuCategory, Prompt: MsgSelectCategory, Options: make([]Option, 0, len(names))}
	for _, n := range names {
		menu.Options = append(menu.Options, Option{Label: n, Value: n})
	}
	d.sendMenu(ctx, r, channelID, menu)
}

func (d *Dispatcher) sendWindowMenu(ctx context.Context, r Responder, channelID string) {
	menu := Menu{ID: MenuWindow, Prompt: MsgSelectWindow}
	for _, w := range core.Windows() {
		menu.Options = append(menu.Options, Option{Label: w.Label, Value: w.Key})
	}
	d.sendMenu(ctx, r, channelID, menu)
}

func (d *Dispatcher) sendMenu(ctx context.Context, r Responder, channelID string, menu Menu) {
	if err := r.SendMenu(ctx, channelID, menu); err != nil {
		d.logger.ErrorContext(ctx, "Failed to send menu", "menu_id", menu.ID, log.FieldError, err)
	}
}

func (d *Dispatcher) reply(ctx context.Context, r Responder, channelID, text string) {
	if err := r.Send(ctx, channelID, text); err != nil {
		d.logger.ErrorContext(ctx, "Failed to send reply", log.FieldChannelID, channelID, log.FieldError, err)
	}
}

// splitCommand returns the lower-cased command name and its trimmed argument.
func (d *Dispatcher) splitCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, d.opts.Prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(text, d.opts.Prefix)
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], rest[i:]
	} else {
		name = rest
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

func savedMessage(e core.Expense) string {
	if e.Category != "" {
		return fmt.Sprintf("Saved: [%s] %s - %s", e.Category, e.Item, e.Amount)
	}
	return fmt.Sprintf("Saved: %s - %s", e.Item, e.Amount)
}

func windowKeys() string {
	keys := make([]string, 0, 4)
	for _, w := range core.Windows() {
		keys = append(keys, w.Key)
	}
	return strings.Join(keys, ", ")
}
