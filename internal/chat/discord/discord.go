// Package discord connects the bot to Discord direct messages.
package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/discordgo"

	"spesebot/internal/bot"
	"spesebot/internal/log"
)

const (
	Platform = "discord"

	// Discord caps select menus at 25 options and custom ids at 100 characters.
	maxSelectOptions = 25
	customIDLimit    = 100
)

// Transport owns a gateway session and forwards DM events to a bot.Handler.
type Transport struct {
	session *discordgo.Session
	handler bot.Handler
	logger  *log.Logger

	ctx   context.Context
	ready atomic.Bool

	// mu guards closing; handlers register with wg only while it is false.
	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

// Ensure interface conformance
var _ bot.Responder = (*Transport)(nil)

// New prepares a session for token. The gateway is opened by Run.
func New(token string, handler bot.Handler, logger *log.Logger) (*Transport, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	t := &Transport{
		session: s,
		handler: handler,
		logger:  logger.WithComponent(log.ComponentDiscord),
		ctx:     context.Background(),
	}
	s.AddHandler(t.onReady)
	s.AddHandler(t.onDisconnect)
	s.AddHandler(t.onMessageCreate)
	s.AddHandler(t.onInteractionCreate)
	return t, nil
}

func (t *Transport) Name() string { return Platform }

// Ready reports whether the gateway connection is up.
func (t *Transport) Ready() bool { return t.ready.Load() }

// Run opens the gateway and blocks until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) error {
	t.ctx = ctx
	if err := t.session.Open(); err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	t.logger.InfoContext(ctx, "Discord transport started")

	<-ctx.Done()

	t.ready.Store(false)
	t.refuseHandlers()
	err := t.session.Close()
	t.wg.Wait()
	t.logger.Info("Discord transport stopped")
	return err
}

// acquire registers an in-flight handler. It fails once Run has begun
// shutting down, so wg.Add never races wg.Wait.
func (t *Transport) acquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		return false
	}
	t.wg.Add(1)
	return true
}

func (t *Transport) refuseHandlers() {
	t.mu.Lock()
	t.closing = true
	t.mu.Unlock()
}

func (t *Transport) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	t.ready.Store(true)
	if r.User != nil {
		t.logger.Info("Discord gateway ready", "username", r.User.Username)
	}
}

func (t *Transport) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	t.ready.Store(false)
	t.logger.Warn("Discord gateway disconnected")
}

func (t *Transport) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	selfID := ""
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	msg, ok := toMessage(m, selfID)
	if !ok {
		return
	}
	if !t.acquire() {
		return
	}
	defer t.wg.Done()
	t.handler.HandleMessage(t.ctx, t, msg)
}

func (t *Transport) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	sel, ok := toSelection(i)
	if !ok {
		return
	}
	if !t.acquire() {
		return
	}
	defer t.wg.Done()

	// Acknowledge within Discord's 3 second window and drop the menu so it
	// cannot be used twice.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    selectedContent(i, sel.Value),
			Components: []discordgo.MessageComponent{},
		},
	}, discordgo.WithContext(t.ctx))
	if err != nil {
		t.logger.WarnContext(t.ctx, "Failed to acknowledge interaction", log.FieldError, err)
	}

	t.handler.HandleSelection(t.ctx, t, sel)
}

// Send implements bot.Responder.
func (t *Transport) Send(ctx context.Context, channelID, text string) error {
	if _, err := t.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SendMenu implements bot.Responder with a string select component.
func (t *Transport) SendMenu(ctx context.Context, channelID string, menu bot.Menu) error {
	send, err := menuMessage(menu)
	if err != nil {
		return err
	}
	if _, err := t.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send menu: %w", err)
	}
	return nil
}

func menuMessage(menu bot.Menu) (*discordgo.MessageSend, error) {
	if len(menu.Options) == 0 {
		return nil, errors.New("menu has no options")
	}
	if len(menu.Options) > maxSelectOptions {
		return nil, fmt.Errorf("menu has %d options (max %d)", len(menu.Options), maxSelectOptions)
	}
	if len(menu.ID) > customIDLimit {
		return nil, fmt.Errorf("menu id %q too long", menu.ID)
	}
	opts := make([]discordgo.SelectMenuOption, 0, len(menu.Options))
	for _, o := range menu.Options {
		opts = append(opts, discordgo.SelectMenuOption{Label: o.Label, Value: o.Value})
	}
	minValues := 1
	return &discordgo.MessageSend{
		Content: menu.Prompt,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						MenuType:    discordgo.StringSelectMenu,
						CustomID:    menu.ID,
						Placeholder: menu.Prompt,
						MinValues:   &minValues,
						MaxValues:   1,
						Options:     opts,
					},
				},
			},
		},
	}, nil
}

func toMessage(m *discordgo.MessageCreate, selfID string) (bot.Message, bool) {
	if m == nil || m.Message == nil || m.Author == nil {
		return bot.Message{}, false
	}
	return bot.Message{
		Platform:  Platform,
		ChannelID: m.ChannelID,
		UserID:    m.Author.ID,
		Username:  m.Author.Username,
		Text:      m.Content,
		Direct:    m.GuildID == "",
		FromBot:   m.Author.Bot || m.Author.ID == selfID,
	}, true
}

func toSelection(i *discordgo.InteractionCreate) (bot.Selection, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionMessageComponent {
		return bot.Selection{}, false
	}
	// Menus are only sent in DMs, where the user is set directly.
	if i.GuildID != "" || i.User == nil {
		return bot.Selection{}, false
	}
	data := i.MessageComponentData()
	if len(data.Values) != 1 {
		return bot.Selection{}, false
	}
	return bot.Selection{
		Platform:  Platform,
		ChannelID: i.ChannelID,
		UserID:    i.User.ID,
		MenuID:    data.CustomID,
		Value:     data.Values[0],
	}, true
}

// selectedContent echoes the chosen option's label after the menu prompt.
func selectedContent(i *discordgo.InteractionCreate, value string) string {
	if i.Message == nil {
		return value
	}
	label := optionLabel(i.Message.Components, value)
	if i.Message.Content != "" {
		return i.Message.Content + " " + label
	}
	return label
}

func optionLabel(components []discordgo.MessageComponent, value string) string {
	for _, c := range components {
		var inner []discordgo.MessageComponent
		var opts []discordgo.SelectMenuOption
		switch v := c.(type) {
		case *discordgo.ActionsRow:
			inner = v.Components
		case discordgo.ActionsRow:
			inner = v.Components
		case *discordgo.SelectMenu:
			opts = v.Options
		case discordgo.SelectMenu:
			opts = v.Options
		}
		for _, o := range opts {
			if o.Value == value {
				return o.Label
			}
		}
		if label := optionLabel(inner, value); label != value {
			return label
		}
	}
	return value
}
