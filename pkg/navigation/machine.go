// Package navigation implementa el flujo de pantallas del quiz como una máquina de estados
// sin E/S: los front-ends aplican eventos y ejecutan el Effect que cada transición devuelve.
package navigation

import (
	"errors"
	"fmt"

	"github.com/backsoul/quizcatalog/pkg/models"
)

var (
	ErrInvalidTransition = errors.New("transición no permitida en la pantalla actual")
	ErrSubjectNotFound   = errors.New("materia no encontrada")
	ErrTopicNotFound     = errors.New("tema no encontrado")
	ErrAlreadyAnswered   = errors.New("la pregunta ya fue respondida")
	ErrNotAnswered       = errors.New("la pregunta aún no fue respondida")
	ErrOptionOutOfRange  = errors.New("opción fuera de rango")
	ErrStaleResult       = errors.New("resultado de una descarga ya descartada")
)

// EffectKind descarga que el llamador debe iniciar tras una transición
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectFetchCatalog
	EffectFetchQuestions
)

// Effect trabajo pendiente producido por una transición
type Effect struct {
	Kind EffectKind
	URL  string
}

// Machine estado de navegación de una sesión. No es seguro para uso concurrente.
type Machine struct {
	state models.NavigationState
}

// New crea una máquina en la pantalla de carga del índice
func New() *Machine {
	return &Machine{state: models.NavigationState{Screen: models.ScreenLoadingIndex}}
}

// Start devuelve la descarga inicial del índice
func (m *Machine) Start() Effect {
	return Effect{Kind: EffectFetchCatalog}
}

// State devuelve una copia del estado actual
func (m *Machine) State() models.NavigationState {
	s := m.state
	if m.state.SelectedAnswer != nil {
		v := *m.state.SelectedAnswer
		s.SelectedAnswer = &v
	}
	return s
}

// Screen pantalla actual
func (m *Machine) Screen() models.Screen {
	return m.state.Screen
}

func (m *Machine) expect(screens ...models.Screen) error {
	for _, s := range screens {
		if m.state.Screen == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidTransition, m.state.Screen)
}

// CatalogLoaded el índice llegó: se muestran las materias
func (m *Machine) CatalogLoaded(c *models.Catalog) error {
	if err := m.expect(models.ScreenLoadingIndex); err != nil {
		return err
	}
	m.state.Catalog = c
	m.state.Error = ""
	m.state.Screen = models.ScreenMain
	return nil
}

// CatalogFailed el índice no pudo cargarse
func (m *Machine) CatalogFailed(err error) error {
	if e := m.expect(models.ScreenLoadingIndex); e != nil {
		return e
	}
	m.fail(err.Error())
	return nil
}

// SelectSubject elige una materia. Una disciplina plana salta directo a la carga del cuestionario.
func (m *Machine) SelectSubject(name string) (Effect, error) {
	if err := m.expect(models.ScreenMain); err != nil {
		return Effect{}, err
	}

	subject, ok := m.state.Catalog.Subject(name)
	if !ok {
		m.fail(ErrSubjectNotFound.Error())
		return Effect{}, ErrSubjectNotFound
	}

	m.state.Subject = subject.Name
	if subject.IsFlat() {
		return m.beginQuiz(subject.Name, subject.URL), nil
	}

	m.state.Screen = models.ScreenSubject
	return Effect{}, nil
}

// SelectTopic elige un asunto de la materia actual
func (m *Machine) SelectTopic(name string) (Effect, error) {
	if err := m.expect(models.ScreenSubject); err != nil {
		return Effect{}, err
	}

	subject, ok := m.state.Catalog.Subject(m.state.Subject)
	if !ok {
		m.fail(ErrSubjectNotFound.Error())
		return Effect{}, ErrSubjectNotFound
	}
	topic, ok := subject.Topic(name)
	if !ok {
		m.fail(ErrTopicNotFound.Error())
		return Effect{}, ErrTopicNotFound
	}

	return m.beginQuiz(topic.Name, topic.URL), nil
}

func (m *Machine) beginQuiz(topic, url string) Effect {
	m.resetQuiz()
	m.state.Topic = topic
	m.state.QuizURL = url
	m.state.Screen = models.ScreenLoadingQuiz
	return Effect{Kind: EffectFetchQuestions, URL: url}
}

// BackToMain vuelve de los asuntos a la lista de materias
func (m *Machine) BackToMain() error {
	if err := m.expect(models.ScreenSubject); err != nil {
		return err
	}
	m.state.Subject = ""
	m.state.Screen = models.ScreenMain
	return nil
}

// QuestionsLoaded el cuestionario de url llegó. Se ignora si la selección ya cambió.
func (m *Machine) QuestionsLoaded(url string, questions []models.Question) error {
	if m.state.Screen != models.ScreenLoadingQuiz || m.state.QuizURL != url {
		return ErrStaleResult
	}
	if len(questions) == 0 {
		m.fail("no se encontraron preguntas en este tema")
		return nil
	}
	m.state.Questions = questions
	m.state.Current = 0
	m.state.Screen = models.ScreenQuiz
	return nil
}

// QuestionsFailed el cuestionario de url no pudo cargarse
func (m *Machine) QuestionsFailed(url string, err error) error {
	if m.state.Screen != models.ScreenLoadingQuiz || m.state.QuizURL != url {
		return ErrStaleResult
	}
	m.fail(err.Error())
	return nil
}

// Answer registra la opción elegida; bloquea nuevas respuestas y muestra la explicación
func (m *Machine) Answer(option int) error {
	if err := m.expect(models.ScreenQuiz); err != nil {
		return err
	}
	if m.state.SelectedAnswer != nil {
		return ErrAlreadyAnswered
	}
	q, ok := m.state.CurrentQuestion()
	if !ok {
		return fmt.Errorf("%w: no hay pregunta actual", ErrInvalidTransition)
	}
	if option < 0 || option >= len(q.Options) {
		return ErrOptionOutOfRange
	}

	m.state.SelectedAnswer = &option
	m.state.ShowExplanation = true
	if q.IsCorrect(option) {
		m.state.Score++
	}
	return nil
}

// Next avanza a la siguiente pregunta o a la pantalla de puntuación
func (m *Machine) Next() error {
	if err := m.expect(models.ScreenQuiz); err != nil {
		return err
	}
	if m.state.SelectedAnswer == nil {
		return ErrNotAnswered
	}

	if m.state.Current+1 < len(m.state.Questions) {
		m.state.Current++
		m.state.SelectedAnswer = nil
		m.state.ShowExplanation = false
		return nil
	}

	m.state.Screen = models.ScreenScore
	return nil
}

// BackToSubject abandona el cuestionario. En la variante plana vuelve a las materias.
func (m *Machine) BackToSubject() error {
	if err := m.expect(models.ScreenQuiz); err != nil {
		return err
	}

	m.resetQuiz()
	m.state.Error = ""

	subject, ok := m.state.Catalog.Subject(m.state.Subject)
	if !ok || subject.IsFlat() {
		m.state.Subject = ""
		m.state.Screen = models.ScreenMain
		return nil
	}
	m.state.Screen = models.ScreenSubject
	return nil
}

// Restart limpia todo salvo el índice. Sin índice cargado, vuelve a descargarlo.
func (m *Machine) Restart() Effect {
	catalog := m.state.Catalog
	m.state = models.NavigationState{Catalog: catalog}

	if catalog == nil {
		m.state.Screen = models.ScreenLoadingIndex
		return Effect{Kind: EffectFetchCatalog}
	}
	m.state.Screen = models.ScreenMain
	return Effect{}
}

func (m *Machine) resetQuiz() {
	m.state.Questions = nil
	m.state.Topic = ""
	m.state.QuizURL = ""
	m.state.Current = 0
	m.state.SelectedAnswer = nil
	m.state.ShowExplanation = false
	m.state.Score = 0
}

func (m *Machine) fail(message string) {
	m.state.Error = message
	m.state.Screen = models.ScreenError
}

// Apply despacha una acción de usuario a la transición correspondiente
func (m *Machine) Apply(action models.Action) (Effect, error) {
	switch action.Type {
	case models.ActionSelectSubject:
		return m.SelectSubject(action.Subject)
	case models.ActionSelectTopic:
		return m.SelectTopic(action.Topic)
	case models.ActionBackToMain:
		return Effect{}, m.BackToMain()
	case models.ActionAnswer:
		return Effect{}, m.Answer(action.Option)
	case models.ActionNext:
		return Effect{}, m.Next()
	case models.ActionBackToSubject:
		return Effect{}, m.BackToSubject()
	case models.ActionRestart:
		return m.Restart(), nil
	default:
		return Effect{}, fmt.Errorf("%w: acción desconocida %q", ErrInvalidTransition, action.Type)
	}
}
