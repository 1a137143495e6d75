package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/models"
	"go.uber.org/zap"
)

const (
	catalogCacheKey      = "catalog"
	catalogFailurePrefix = "error al cargar el índice de materias"
	msgInvalidCatalog    = "formato del índice de materias inválido"
)

// CatalogService descarga y valida el índice principal de materias
type CatalogService struct {
	loader documentLoader
	url    string
	now    func() time.Time
}

// NewCatalogService crea una nueva instancia del servicio
func NewCatalogService(fetcher Fetcher, cache DocumentCache, url string, ttl time.Duration) *CatalogService {
	return &CatalogService{
		loader: documentLoader{fetcher: fetcher, cache: cache, ttl: ttl},
		url:    url,
		now:    time.Now,
	}
}

// LoadCatalog obtiene el índice; debe ser un objeto JSON (ni null ni array)
func (s *CatalogService) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	var catalog *models.Catalog
	_, err := s.loader.load(ctx, "catalog", catalogCacheKey, s.url, catalogFailurePrefix, func(body []byte) error {
		c, err := ParseCatalog(body)
		if err != nil {
			return err
		}
		catalog = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	catalog.LoadedAt = s.now()
	logger.Log.Info("📚 Índice de materias cargado", zap.Int("subjects", len(catalog.Subjects)))
	return catalog, nil
}

// Invalidate descarta el índice cacheado
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if err := s.loader.invalidate(ctx, catalogCacheKey); err != nil {
		return fmt.Errorf("error invalidando índice: %w", err)
	}
	return nil
}

// HealthCheck verifica la caché de documentos
func (s *CatalogService) HealthCheck(ctx context.Context) error {
	if s.loader.cache == nil {
		return nil
	}
	return s.loader.cache.HealthCheck(ctx)
}

// ParseCatalog decodifica el índice conservando el orden de las claves.
// Un valor string es una disciplina con URL directa; un objeto es una materia con asuntos.
func ParseCatalog(body []byte) (*models.Catalog, error) {
	members, err := orderedObject(body)
	if err != nil {
		return nil, &ShapeError{Message: msgInvalidCatalog}
	}

	catalog := &models.Catalog{Subjects: make([]models.Subject, 0, len(members))}
	for _, m := range members {
		switch models.KindOf(m.value) {
		case models.KindString:
			var url string
			if err := json.Unmarshal(m.value, &url); err != nil {
				return nil, &ShapeError{Message: msgInvalidCatalog}
			}
			catalog.Subjects = appendSubject(catalog.Subjects, models.Subject{Name: m.key, URL: url})
		case models.KindObject:
			topics, err := parseTopics(m.key, m.value)
			if err != nil {
				return nil, &ShapeError{Message: msgInvalidCatalog}
			}
			catalog.Subjects = appendSubject(catalog.Subjects, models.Subject{Name: m.key, Topics: topics})
		default:
			logger.Log.Warn("⚠️ Entrada del índice ignorada",
				zap.String("subject", m.key),
				zap.String("kind", string(models.KindOf(m.value))))
		}
	}

	return catalog, nil
}

func parseTopics(subject string, raw json.RawMessage) ([]models.Topic, error) {
	members, err := orderedObject(raw)
	if err != nil {
		return nil, err
	}

	topics := make([]models.Topic, 0, len(members))
	for _, m := range members {
		if models.KindOf(m.value) != models.KindString {
			logger.Log.Warn("⚠️ Asunto ignorado: la URL no es un string",
				zap.String("subject", subject),
				zap.String("topic", m.key))
			continue
		}
		var url string
		if err := json.Unmarshal(m.value, &url); err != nil {
			return nil, err
		}
		topic := models.Topic{Name: m.key, URL: url}
		replaced := false
		for i := range topics {
			if topics[i].Name == topic.Name {
				topics[i] = topic
				replaced = true
				break
			}
		}
		if !replaced {
			topics = append(topics, topic)
		}
	}
	return topics, nil
}

// appendSubject con claves repetidas gana la última, en la posición de la primera
func appendSubject(subjects []models.Subject, s models.Subject) []models.Subject {
	for i := range subjects {
		if subjects[i].Name == s.Name {
			subjects[i] = s
			return subjects
		}
	}
	return append(subjects, s)
}

type member struct {
	key   string
	value json.RawMessage
}

// orderedObject recorre un objeto JSON de primer nivel en orden de aparición
func orderedObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("se esperaba un objeto JSON")
	}

	var members []member
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("clave inválida")
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{key: key, value: value})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("datos extra después del objeto")
	}

	return members, nil
}
