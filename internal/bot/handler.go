package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"voicefy/internal/apperr"
	"voicefy/internal/generation"
	"voicefy/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender - часть API бота, которую использует обработчик
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Catalog - каталог голосов, доступный пользователям бота
type Catalog interface {
	PublicVoices() []models.Voice
	Voice(id int64) (models.Voice, bool)
}

// SessionFactory создает сессию генерации для нового чата
type SessionFactory func() *generation.Session

// chatState - состояние одного чата: выбранный голос и своя сессия генерации
type chatState struct {
	session *generation.Session
	voiceID int64
}

// Handler представляет обработчик сообщений Telegram
type Handler struct {
	bot           Sender
	catalog       Catalog
	newSession    SessionFactory
	maxTextLength int
	logger        *zap.Logger
	rateLimiter   *RateLimiter

	mu    sync.Mutex
	chats map[int64]*chatState
}

// NewHandler создает новый обработчик
func NewHandler(bot Sender, catalog Catalog, newSession SessionFactory, maxTextLength int, logger *zap.Logger) *Handler {
	return &Handler{
		bot:           bot,
		catalog:       catalog,
		newSession:    newSession,
		maxTextLength: maxTextLength,
		logger:        logger,
		rateLimiter:   NewRateLimiter(MaxRequestsPerMinute, RateLimitWindow),
		chats:         make(map[int64]*chatState),
	}
}

// HandleUpdate обрабатывает входящее обновление
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	var chatID int64
	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		chatID = update.CallbackQuery.Message.Chat.ID
	case update.Message != nil:
		chatID = update.Message.Chat.ID
	default:
		return nil
	}

	if !h.rateLimiter.IsAllowed(chatID) {
		h.logger.Warn("rate limit exceeded", zap.Int64("chat_id", chatID))
		if update.Message != nil {
			return h.sendMessage(chatID, msgRateLimited)
		}
		return nil
	}

	if update.CallbackQuery != nil {
		return h.handleCallbackQuery(ctx, update.CallbackQuery)
	}

	message := update.Message
	h.logger.Debug("получено сообщение",
		zap.Int64("chat_id", chatID),
		zap.Int("text_length", len(message.Text)))

	if message.IsCommand() {
		return h.handleCommand(message)
	}
	return h.handleText(ctx, message)
}

func (h *Handler) handleCommand(message *tgbotapi.Message) error {
	switch message.Command() {
	case "start", "help":
		return h.sendMessage(message.Chat.ID, fmt.Sprintf(msgStart, h.maxTextLength))
	case "voices":
		return h.sendVoices(message.Chat.ID)
	default:
		return h.sendMessage(message.Chat.ID, msgUnknown)
	}
}

// handleText отправляет текст на синтез выбранным голосом и присылает результат
func (h *Handler) handleText(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	state := h.chat(chatID)

	h.mu.Lock()
	voiceID := state.voiceID
	h.mu.Unlock()

	if voiceID == 0 {
		return h.sendMessage(chatID, msgNeedVoice)
	}
	if _, ok := h.catalog.Voice(voiceID); !ok {
		return h.sendMessage(chatID, msgVoiceMissing)
	}

	ticket, err := state.session.Submit(ctx, message.Text, voiceID)
	if err != nil {
		if apperr.IsValidation(err) {
			return h.sendMessage(chatID, apperr.Message(err))
		}
		h.logger.Error("ошибка отправки запроса синтеза", zap.Int64("chat_id", chatID), zap.Error(err))
		return h.sendMessage(chatID, apperr.Message(err))
	}

	if err := h.sendMessage(chatID, msgGenerating); err != nil {
		h.logger.Warn("ошибка отправки статуса генерации", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	h.sendChatAction(chatID, tgbotapi.ChatTyping)

	select {
	case <-ticket.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	snap := state.session.Snapshot()
	if snap.Token != ticket.Token {
		// ответ на более новый запрос пришлет его собственный обработчик
		return nil
	}

	switch snap.Status {
	case generation.StatusReady:
		data, filename, err := state.session.Download()
		if err != nil {
			return nil
		}
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
		if voice, ok := h.catalog.Voice(voiceID); ok {
			audio.Caption = "🔊 " + voice.DisplayName
		}
		audio.ReplyMarkup = discardKeyboard()
		if _, err := h.bot.Send(audio); err != nil {
			h.logger.Error("ошибка отправки аудио", zap.Int64("chat_id", chatID), zap.Error(err))
			return err
		}
		h.logger.Info("аудио отправлено", zap.Int64("chat_id", chatID), zap.Int("size", len(data)))
		return nil
	case generation.StatusFailed:
		return h.sendMessage(chatID, "❌ "+snap.ErrorDetail)
	default:
		return nil
	}
}

func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID
	data := callback.Data

	h.logger.Debug("обрабатываем callback", zap.String("data", data), zap.Int64("chat_id", chatID))

	if page, ok := parseCallback(data, callbackPage); ok {
		h.answerCallback(callback.ID, "")
		return h.editVoices(chatID, callback.Message.MessageID, int(page))
	}

	if id, ok := parseCallback(data, callbackVoice); ok {
		voice, found := h.catalog.Voice(id)
		if !found || !voice.IsPublic() {
			h.answerCallback(callback.ID, msgVoiceMissing)
			return nil
		}
		state := h.chat(chatID)
		h.mu.Lock()
		state.voiceID = id
		h.mu.Unlock()
		h.answerCallback(callback.ID, "")
		return h.sendMessage(chatID, fmt.Sprintf(msgVoiceChosen, voice.DisplayName))
	}

	if id, ok := parseCallback(data, callbackPreview); ok {
		voice, found := h.catalog.Voice(id)
		if !found || !voice.HasPreview() {
			h.answerCallback(callback.ID, msgNoPreview)
			return nil
		}
		h.answerCallback(callback.ID, "")
		audio := tgbotapi.NewAudio(chatID, tgbotapi.FileURL(*voice.PreviewURL))
		audio.Caption = "▶️ " + voice.DisplayName
		if _, err := h.bot.Send(audio); err != nil {
			h.logger.Error("ошибка отправки превью", zap.Int64("voice_id", id), zap.Error(err))
			return err
		}
		return nil
	}

	if data == callbackDiscard {
		if err := h.chat(chatID).session.Discard(); err != nil {
			h.answerCallback(callback.ID, msgNothing)
			return nil
		}
		h.answerCallback(callback.ID, msgDiscarded)
		return nil
	}

	h.answerCallback(callback.ID, "")
	h.logger.Warn("неизвестный callback", zap.String("data", data))
	return nil
}

// Close освобождает результаты всех чатов
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, state := range h.chats {
		state.session.Close()
	}
	h.chats = make(map[int64]*chatState)
}

func (h *Handler) chat(chatID int64) *chatState {
	h.mu.Lock()
	defer h.mu.Unlock()
	state, ok := h.chats[chatID]
	if !ok {
		state = &chatState{session: h.newSession()}
		h.chats[chatID] = state
	}
	return state
}

func (h *Handler) sendVoices(chatID int64) error {
	voices := h.catalog.PublicVoices()
	if len(voices) == 0 {
		return h.sendMessage(chatID, msgNoVoices)
	}
	keyboard, page := voicesKeyboard(voices, 1)
	msg := tgbotapi.NewMessage(chatID, h.voicesTitle(len(voices), page))
	msg.ReplyMarkup = keyboard
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("ошибка отправки списка голосов", zap.Int64("chat_id", chatID), zap.Error(err))
		return err
	}
	return nil
}

func (h *Handler) editVoices(chatID int64, messageID int, page int) error {
	voices := h.catalog.PublicVoices()
	if len(voices) == 0 {
		return h.sendMessage(chatID, msgNoVoices)
	}
	keyboard, page := voicesKeyboard(voices, page)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, h.voicesTitle(len(voices), page), keyboard)
	if _, err := h.bot.Send(edit); err != nil {
		h.logger.Error("ошибка обновления списка голосов", zap.Int64("chat_id", chatID), zap.Error(err))
		return err
	}
	return nil
}

func (h *Handler) voicesTitle(n, page int) string {
	total := (n + VoicesPerPage - 1) / VoicesPerPage
	return fmt.Sprintf(msgChooseVoice, page, total)
}

func (h *Handler) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(text))
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.Error("ошибка отправки сообщения", zap.Int64("chat_id", chatID), zap.Error(err))
		return err
	}
	return nil
}

func (h *Handler) answerCallback(id, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		h.logger.Error("ошибка ответа на callback", zap.Error(err))
	}
}

func (h *Handler) sendChatAction(chatID int64, action string) {
	if _, err := h.bot.Request(tgbotapi.NewChatAction(chatID, action)); err != nil {
		h.logger.Debug("ошибка отправки статуса", zap.Error(err))
	}
}
