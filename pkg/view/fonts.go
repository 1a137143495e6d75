package view

import "unicode/utf8"

const (
	FontLarge  = "button-large"
	FontMedium = "button-medium"
	FontSmall  = "button-small"
)

type fontLimits struct {
	large, medium int
}

var (
	questionMobile  = fontLimits{large: 100, medium: 200}
	questionDesktop = fontLimits{large: 200, medium: 400}
	optionMobile    = fontLimits{large: 50, medium: 100}
	optionDesktop   = fontLimits{large: 80, medium: 160}
)

func (l fontLimits) class(text string) string {
	n := utf8.RuneCountInString(text)
	switch {
	case n <= l.large:
		return FontLarge
	case n <= l.medium:
		return FontMedium
	default:
		return FontSmall
	}
}

// QuestionFontClass tamaño de fuente del enunciado
func QuestionFontClass(text string, mobile bool) string {
	if mobile {
		return questionMobile.class(text)
	}
	return questionDesktop.class(text)
}

// OptionFontClass tamaño de fuente de una opción de respuesta
func OptionFontClass(text string, mobile bool) string {
	if mobile {
		return optionMobile.class(text)
	}
	return optionDesktop.class(text)
}
