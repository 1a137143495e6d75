package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/backsoul/quizcatalog/pkg/models"
	"github.com/backsoul/quizcatalog/pkg/view"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Datos de callback de los botones; los índices apuntan a la pantalla vigente
const (
	cbSubject  = "s:"
	cbTopic    = "t:"
	cbAnswer   = "a:"
	cbNext     = "next"
	cbBack     = "back"
	cbMain     = "main"
	cbRestart  = "restart"
	stateRight = "button-selected-correct"
)

// maxMessageLen límite de Telegram para el texto de un mensaje, en unidades UTF-16
const maxMessageLen = 4096

var errStaleButton = errors.New("opción no disponible")

// fitMessage recorta text para que entre en un mensaje, terminando en "…"
func fitMessage(text string) string {
	if messageLen(text) <= maxMessageLen {
		return text
	}
	units := 0
	for i, r := range text {
		units += runeUnits(r)
		if units > maxMessageLen-1 {
			return text[:i] + "…"
		}
	}
	return text
}

func messageLen(text string) int {
	units := 0
	for _, r := range text {
		units += runeUnits(r)
	}
	return units
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// renderText texto del mensaje de una pantalla
func renderText(v view.ScreenView) string {
	var b strings.Builder

	switch v.Screen {
	case models.ScreenLoadingIndex, models.ScreenLoadingQuiz:
		b.WriteString("⏳ " + v.Title)

	case models.ScreenError:
		fmt.Fprintf(&b, "⚠️ %s\n\n%s", v.Title, v.Error)

	case models.ScreenMain:
		b.WriteString("📚 " + v.Title)
		if len(v.Items) == 0 {
			b.WriteString("\n\nNo hay materias disponibles.")
		}

	case models.ScreenSubject:
		fmt.Fprintf(&b, "📖 %s\n%s", v.Title, v.Subtitle)

	case models.ScreenQuiz:
		q := v.Quiz
		fmt.Fprintf(&b, "%s\n%s\n\n❓ %s", v.Title, q.Progress, q.Question)
		for _, o := range q.Options {
			if o.StateClass == "button" {
				continue
			}
			if o.StateClass == stateRight {
				fmt.Fprintf(&b, "\n\n✅ ¡Correcto! %s", o.Text)
			} else {
				fmt.Fprintf(&b, "\n\n❌ Incorrecto: %s", o.Text)
			}
		}
		if q.ShowExplanation && q.Explanation != "" {
			b.WriteString("\n\n💡 " + q.Explanation)
		}

	case models.ScreenScore:
		fmt.Fprintf(&b, "🏁 %s\n\n%s", v.Title, v.Score.Summary)
	}

	return b.String()
}

// keyboard botones de una pantalla; nil mientras se descarga
func keyboard(v view.ScreenView) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	row := func(text, data string) {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data)))
	}

	switch v.Screen {
	case models.ScreenError:
		row("🏠 Volver al inicio", cbRestart)

	case models.ScreenMain:
		for i, item := range v.Items {
			row(item.Name, cbSubject+strconv.Itoa(i))
		}

	case models.ScreenSubject:
		for i, item := range v.Items {
			row(item.Name, cbTopic+strconv.Itoa(i))
		}
		row("← Volver a las materias", cbMain)

	case models.ScreenQuiz:
		if v.Quiz.ShowExplanation {
			row(v.Quiz.NextLabel, cbNext)
		} else {
			for _, o := range v.Quiz.Options {
				row(o.Text, cbAnswer+strconv.Itoa(o.Index))
			}
		}
		row("← Volver", cbBack)

	case models.ScreenScore:
		row("🎯 Reiniciar quiz", cbRestart)
	}

	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// parseCallback traduce el dato de un botón a una acción sobre la pantalla vigente
func parseCallback(data string, v view.ScreenView) (models.Action, error) {
	switch data {
	case cbNext:
		return models.Action{Type: models.ActionNext}, nil
	case cbBack:
		return models.Action{Type: models.ActionBackToSubject}, nil
	case cbMain:
		return models.Action{Type: models.ActionBackToMain}, nil
	case cbRestart:
		return models.Action{Type: models.ActionRestart}, nil
	}

	prefix, raw, ok := strings.Cut(data, ":")
	if !ok {
		return models.Action{}, fmt.Errorf("callback desconocido %q", data)
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return models.Action{}, fmt.Errorf("callback desconocido %q", data)
	}

	switch prefix + ":" {
	case cbSubject:
		if v.Screen != models.ScreenMain || i >= len(v.Items) {
			return models.Action{}, errStaleButton
		}
		return models.Action{Type: models.ActionSelectSubject, Subject: v.Items[i].Name}, nil
	case cbTopic:
		if v.Screen != models.ScreenSubject || i >= len(v.Items) {
			return models.Action{}, errStaleButton
		}
		return models.Action{Type: models.ActionSelectTopic, Topic: v.Items[i].Name}, nil
	case cbAnswer:
		return models.Action{Type: models.ActionAnswer, Option: i}, nil
	}
	return models.Action{}, fmt.Errorf("callback desconocido %q", data)
}
