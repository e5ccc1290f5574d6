package bot

import (
	"fmt"
	"strconv"
	"strings"

	"voicefy/internal/catalog"
	"voicefy/pkg/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// VoicesPerPage - число голосов на странице клавиатуры
const VoicesPerPage = 12

const (
	callbackPage    = "page:"
	callbackVoice   = "voice:"
	callbackPreview = "preview:"
	callbackDiscard = "discard"
)

const (
	msgStart = "👋 Привет! Я озвучиваю текст голосами из каталога.\n\n" +
		"1. Выберите голос: /voices\n" +
		"2. Отправьте текст до %d символов\n\n" +
		"Кнопка ▶️ рядом с голосом присылает его превью."
	msgNoVoices     = "😔 Каталог голосов пока пуст."
	msgChooseVoice  = "🎙 Выберите голос (страница %d из %d):"
	msgVoiceChosen  = "✅ Выбран голос: %s\nТеперь отправьте текст."
	msgNeedVoice    = "Сначала выберите голос: /voices"
	msgNoPreview    = "У голоса нет превью"
	msgGenerating   = "🎵 Генерирую аудио..."
	msgDiscarded    = "🗑 Результат удален"
	msgNothing      = "Нечего удалять"
	msgUnknown      = "Неизвестная команда. Используйте /start или /voices."
	msgRateLimited  = "⚠️ Слишком много запросов. Подождите минуту."
	msgVoiceMissing = "Голос больше не доступен, выберите другой: /voices"
)

// voicesKeyboard строит клавиатуру страницы page (с 1) публичных голосов
func voicesKeyboard(voices []models.Voice, page int) (tgbotapi.InlineKeyboardMarkup, int) {
	total := catalog.PageCount(len(voices), VoicesPerPage)
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, v := range catalog.Page(page, VoicesPerPage, voices) {
		id := strconv.FormatInt(v.ID, 10)
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(v.DisplayName, callbackVoice+id),
		}
		if v.HasPreview() {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️", callbackPreview+id))
		}
		rows = append(rows, row)
	}

	var nav []tgbotapi.InlineKeyboardButton
	if page > 1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("⬅️", fmt.Sprintf("%s%d", callbackPage, page-1)))
	}
	if page < total {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("➡️", fmt.Sprintf("%s%d", callbackPage, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...), page
}

func discardKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", callbackDiscard),
		),
	)
}

// parseCallback разбирает данные кнопки вида prefix:число
func parseCallback(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
