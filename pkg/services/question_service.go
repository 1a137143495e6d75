package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/models"
	"go.uber.org/zap"
)

const (
	questionsFailurePrefix = "error al cargar las preguntas"
	msgNotAnArray          = "el formato de los datos no es un array"
	msgNoQuestions         = "no se encontraron preguntas en este tema"

	maxIndex = 1 << 53
)

// QuestionService descarga y valida los cuestionarios de cada asunto
type QuestionService struct {
	loader documentLoader
}

// NewQuestionService crea una nueva instancia del servicio
func NewQuestionService(fetcher Fetcher, cache DocumentCache, ttl time.Duration) *QuestionService {
	return &QuestionService{
		loader: documentLoader{fetcher: fetcher, cache: cache, ttl: ttl},
	}
}

// LoadQuestionSet obtiene y valida el array de preguntas publicado en url
func (s *QuestionService) LoadQuestionSet(ctx context.Context, url string) ([]models.Question, error) {
	var questions []models.Question
	_, err := s.loader.load(ctx, "questions", questionsCacheKey(url), url, questionsFailurePrefix, func(body []byte) error {
		qs, err := ParseQuestionSet(body)
		if err != nil {
			return err
		}
		questions = qs
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("📝 Cuestionario cargado", zap.String("url", url), zap.Int("questions", len(questions)))
	return questions, nil
}

// Invalidate descarta el cuestionario cacheado de url
func (s *QuestionService) Invalidate(ctx context.Context, url string) error {
	return s.loader.invalidate(ctx, questionsCacheKey(url))
}

func questionsCacheKey(url string) string {
	return "questions:" + url
}

// ParseQuestionSet valida el tipo primitivo de cada campo de cada pregunta.
// No verifica que correct sea un índice válido de options.
func ParseQuestionSet(body []byte) ([]models.Question, error) {
	var items []json.RawMessage
	if models.KindOf(body) != models.KindArray {
		return nil, &ShapeError{Message: msgNotAnArray}
	}
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, &ShapeError{Message: msgNotAnArray}
	}

	questions := make([]models.Question, 0, len(items))
	for i, item := range items {
		q, ok := parseQuestion(item)
		if !ok {
			return nil, &ShapeError{Message: fmt.Sprintf("la pregunta #%d tiene formato inválido", i+1)}
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, &ShapeError{Message: msgNoQuestions}
	}

	return questions, nil
}

func parseQuestion(raw json.RawMessage) (models.Question, bool) {
	if models.KindOf(raw) != models.KindObject {
		return models.Question{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return models.Question{}, false
	}

	expect := map[string]models.JSONKind{
		"question":    models.KindString,
		"options":     models.KindArray,
		"correct":     models.KindNumber,
		"explanation": models.KindString,
	}
	for name, kind := range expect {
		if models.KindOf(fields[name]) != kind {
			return models.Question{}, false
		}
	}
	if k := models.KindOf(fields["id"]); k != models.KindNumber && k != models.KindString {
		return models.Question{}, false
	}

	var q models.Question
	if err := json.Unmarshal(fields["id"], &q.ID); err != nil {
		return models.Question{}, false
	}
	if json.Unmarshal(fields["question"], &q.Question) != nil || json.Unmarshal(fields["explanation"], &q.Explanation) != nil {
		return models.Question{}, false
	}

	correct, ok := parseIndex(fields["correct"])
	if !ok {
		return models.Question{}, false
	}
	q.Correct = correct

	options, ok := parseOptions(fields["options"])
	if !ok {
		return models.Question{}, false
	}
	q.Options = options
	return q, true
}

// parseIndex acepta cualquier número entero (1, 1.0, 1e0); 0.5 no es un índice
func parseIndex(raw json.RawMessage) (int, bool) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > maxIndex {
		return 0, false
	}
	return int(f), true
}

// parseOptions muestra los escalares como texto; null y booleanos quedan vacíos
func parseOptions(raw json.RawMessage) ([]string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	options := make([]string, 0, len(items))
	for _, item := range items {
		switch models.KindOf(item) {
		case models.KindString:
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, false
			}
			options = append(options, s)
		case models.KindNumber:
			var n json.Number
			if err := json.Unmarshal(item, &n); err != nil {
				return nil, false
			}
			f, err := n.Float64()
			if err != nil {
				return nil, false
			}
			options = append(options, strconv.FormatFloat(f, 'f', -1, 64))
		case models.KindNull, models.KindBool:
			options = append(options, "")
		default:
			return nil, false
		}
	}
	return options, true
}
