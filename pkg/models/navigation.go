package models

// Screen pantalla actual del flujo de navegación
type Screen string

const (
	ScreenLoadingIndex Screen = "loadingIndex"
	ScreenMain         Screen = "main"
	ScreenSubject      Screen = "subject"
	ScreenLoadingQuiz  Screen = "loadingQuiz"
	ScreenQuiz         Screen = "quiz"
	ScreenScore        Screen = "score"
	ScreenError        Screen = "error"
)

// NavigationState estado transitorio de una sesión de navegador
type NavigationState struct {
	Screen          Screen     `json:"screen"`
	Catalog         *Catalog   `json:"catalog,omitempty"`
	Subject         string     `json:"subject,omitempty"`
	Topic           string     `json:"topic,omitempty"`
	QuizURL         string     `json:"quizUrl,omitempty"`
	Questions       []Question `json:"questions,omitempty"`
	Current         int        `json:"current"`
	SelectedAnswer  *int       `json:"selectedAnswer,omitempty"`
	ShowExplanation bool       `json:"showExplanation"`
	Score           int        `json:"score"`
	Error           string     `json:"error,omitempty"`
}

// CurrentQuestion devuelve la pregunta actual, si existe
func (s NavigationState) CurrentQuestion() (Question, bool) {
	if s.Current < 0 || s.Current >= len(s.Questions) {
		return Question{}, false
	}
	return s.Questions[s.Current], true
}

// Answered indica si ya se eligió una respuesta para la pregunta actual
func (s NavigationState) Answered() bool {
	return s.SelectedAnswer != nil
}

// IsLastQuestion indica si la pregunta actual es la última del cuestionario
func (s NavigationState) IsLastQuestion() bool {
	return s.Current == len(s.Questions)-1
}

// ActionType acción disparada por el usuario
type ActionType string

const (
	ActionSelectSubject ActionType = "selectSubject"
	ActionSelectTopic   ActionType = "selectTopic"
	ActionBackToMain    ActionType = "backToMain"
	ActionAnswer        ActionType = "answer"
	ActionNext          ActionType = "next"
	ActionBackToSubject ActionType = "backToSubject"
	ActionRestart       ActionType = "restart"
)

// Action petición de transición enviada por un front-end
type Action struct {
	Type    ActionType `json:"action"`
	Subject string     `json:"subject,omitempty"`
	Topic   string     `json:"topic,omitempty"`
	Option  int        `json:"option"`
}
