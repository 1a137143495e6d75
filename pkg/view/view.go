// Package view arma el modelo de cada pantalla a partir del estado de navegación
// y lo renderiza como HTML.
package view

import (
	"fmt"

	"github.com/backsoul/quizcatalog/pkg/models"
)

const (
	optionClass          = "button"
	optionCorrectClass   = "button-selected-correct"
	optionIncorrectClass = "button-selected-incorrect"

	labelNext   = "Siguiente pregunta"
	labelResult = "Ver resultado"
)

// ItemView una materia o un asunto a elegir
type ItemView struct {
	Name   string            `json:"name"`
	Action models.ActionType `json:"action"`
}

// OptionView una opción de respuesta
type OptionView struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	StateClass string `json:"stateClass"`
	FontClass  string `json:"fontClass"`
	Disabled   bool   `json:"disabled"`
}

// QuizView pregunta actual del cuestionario
type QuizView struct {
	Topic           string       `json:"topic"`
	Number          int          `json:"number"`
	Total           int          `json:"total"`
	Progress        string       `json:"progress"`
	Question        string       `json:"question"`
	QuestionClass   string       `json:"questionClass"`
	Options         []OptionView `json:"options"`
	ShowExplanation bool         `json:"showExplanation"`
	Explanation     string       `json:"explanation,omitempty"`
	NextLabel       string       `json:"nextLabel,omitempty"`
}

// ScoreView resultado final
type ScoreView struct {
	Score   int    `json:"score"`
	Total   int    `json:"total"`
	Summary string `json:"summary"`
}

// ScreenView todo lo que una pantalla necesita para dibujarse
type ScreenView struct {
	Screen     models.Screen `json:"screen"`
	Title      string        `json:"title"`
	Subtitle   string        `json:"subtitle,omitempty"`
	Mobile     bool          `json:"mobile"`
	DeviceHint string        `json:"deviceHint,omitempty"`
	Items      []ItemView    `json:"items,omitempty"`
	Quiz       *QuizView     `json:"quiz,omitempty"`
	Score      *ScoreView    `json:"score,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Loading indica una pantalla de espera de descarga
func (v ScreenView) Loading() bool {
	return v.Screen == models.ScreenLoadingIndex || v.Screen == models.ScreenLoadingQuiz
}

// Build arma la vista de la pantalla actual
func Build(state models.NavigationState, mobile bool) ScreenView {
	v := ScreenView{Screen: state.Screen, Mobile: mobile}

	switch state.Screen {
	case models.ScreenLoadingIndex, models.ScreenLoadingQuiz:
		v.Title = "Cargando..."

	case models.ScreenError:
		v.Title = "Error al cargar"
		v.Error = state.Error
		if v.Error == "" {
			v.Error = "Error desconocido"
		}

	case models.ScreenMain:
		v.Title = "Elige la materia:"
		v.DeviceHint = DeviceHint(mobile)
		for _, name := range state.Catalog.Names() {
			v.Items = append(v.Items, ItemView{Name: name, Action: models.ActionSelectSubject})
		}

	case models.ScreenSubject:
		v.Title = "Elige el tema:"
		v.Subtitle = state.Subject
		if subject, ok := state.Catalog.Subject(state.Subject); ok {
			for _, t := range subject.Topics {
				v.Items = append(v.Items, ItemView{Name: t.Name, Action: models.ActionSelectTopic})
			}
		}

	case models.ScreenQuiz:
		v.Title = "Quiz: " + state.Topic
		v.Quiz = buildQuiz(state, mobile)
		if v.Quiz == nil {
			v.Screen = models.ScreenError
			v.Title = "Error al cargar"
			v.Error = "pregunta no encontrada"
		}

	case models.ScreenScore:
		total := len(state.Questions)
		v.Title = "¡Quiz completo!"
		v.Score = &ScoreView{
			Score:   state.Score,
			Total:   total,
			Summary: fmt.Sprintf("Acertaste %d de %d preguntas", state.Score, total),
		}
	}

	return v
}

func buildQuiz(state models.NavigationState, mobile bool) *QuizView {
	q, ok := state.CurrentQuestion()
	if !ok {
		return nil
	}

	total := len(state.Questions)
	answered := state.Answered()
	qv := &QuizView{
		Topic:           state.Topic,
		Number:          state.Current + 1,
		Total:           total,
		Progress:        fmt.Sprintf("Pregunta %d de %d", state.Current+1, total),
		Question:        q.Question,
		QuestionClass:   QuestionFontClass(q.Question, mobile),
		Options:         make([]OptionView, len(q.Options)),
		ShowExplanation: state.ShowExplanation,
	}

	for i, text := range q.Options {
		stateClass := optionClass
		if answered && *state.SelectedAnswer == i {
			if q.IsCorrect(i) {
				stateClass = optionCorrectClass
			} else {
				stateClass = optionIncorrectClass
			}
		}
		qv.Options[i] = OptionView{
			Index:      i,
			Text:       text,
			StateClass: stateClass,
			FontClass:  OptionFontClass(text, mobile),
			Disabled:   answered,
		}
	}

	if state.ShowExplanation {
		qv.Explanation = q.Explanation
		qv.NextLabel = labelNext
		if state.IsLastQuestion() {
			qv.NextLabel = labelResult
		}
	}

	return qv
}
