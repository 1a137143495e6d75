// Package telegram expone el mismo flujo de navegación del quiz como bot de Telegram.
// Cada chat es una sesión "tg:<chatID>" que siempre se dibuja como móvil.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/services"
	"github.com/backsoul/quizcatalog/pkg/view"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const sessionPrefix = "tg:"

// Sender parte de la API de Telegram que usa el bot
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Bot struct {
	api      *tgbotapi.BotAPI
	sender   Sender
	sessions *services.SessionService
}

// NewBot se autentica con token
func NewBot(token string, debug bool, sessions *services.SessionService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug

	b := newBot(api, sessions)
	b.api = api
	return b, nil
}

func newBot(sender Sender, sessions *services.SessionService) *Bot {
	return &Bot{sender: sender, sessions: sessions}
}

// Start atiende actualizaciones hasta que ctx termine
func (b *Bot) Start(ctx context.Context) {
	logger.Log.Info("🤖 Bot autorizado", zap.String("account", b.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message != nil {
		b.handleMessage(update.Message)
	}
	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	id := sessionID(chatID)

	switch msg.Command() {
	case "start", "restart":
		// Una sesión nueva vuelve a cargar el índice; la pantalla llega por NotifySession
		b.sessions.CreateSessionWithID(id)
		b.sendScreen(chatID)
	default:
		if _, err := b.sessions.GetSession(id); err != nil {
			b.sessions.CreateSessionWithID(id)
		}
		b.sendScreen(chatID)
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	id := sessionID(chatID)

	notice := ""
	defer func() {
		if _, err := b.sender.Request(tgbotapi.NewCallback(callback.ID, notice)); err != nil {
			logger.Log.Warn("Error respondiendo callback", zap.Error(err))
		}
	}()

	state, _, err := b.sessions.Snapshot(id)
	if errors.Is(err, services.ErrSessionNotFound) {
		b.sessions.CreateSessionWithID(id)
		b.sendScreen(chatID)
		return
	}

	action, err := parseCallback(callback.Data, view.Build(state, true))
	if err != nil {
		notice = err.Error()
		b.sendScreen(chatID)
		return
	}

	if _, err := b.sessions.Dispatch(id, action); err != nil {
		notice = err.Error()
	}
	b.sendScreen(chatID)
}

// NotifySession envía la pantalla al chat cuando una descarga termina
func (b *Bot) NotifySession(id string) {
	chatID, ok := chatFromSession(id)
	if !ok {
		return
	}
	b.sendScreen(chatID)
}

func (b *Bot) sendScreen(chatID int64) {
	state, _, err := b.sessions.Snapshot(sessionID(chatID))
	if err != nil {
		return
	}
	v := view.Build(state, true)

	msg := tgbotapi.NewMessage(chatID, fitMessage(renderText(v)))
	if kb := keyboard(v); kb != nil {
		msg.ReplyMarkup = kb
	}
	if _, err := b.sender.Send(msg); err != nil {
		logger.Log.Warn("Error enviando mensaje", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func sessionID(chatID int64) string {
	return sessionPrefix + strconv.FormatInt(chatID, 10)
}

func chatFromSession(id string) (int64, bool) {
	raw, ok := strings.CutPrefix(id, sessionPrefix)
	if !ok {
		return 0, false
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return chatID, true
}
