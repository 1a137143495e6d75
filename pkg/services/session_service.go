package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/metrics"
	"github.com/backsoul/quizcatalog/pkg/models"
	"github.com/backsoul/quizcatalog/pkg/navigation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrSessionNotFound = errors.New("sesión no encontrada")

// CatalogLoader fuente del índice de materias
type CatalogLoader interface {
	LoadCatalog(ctx context.Context) (*models.Catalog, error)
}

// QuestionLoader fuente de los cuestionarios
type QuestionLoader interface {
	LoadQuestionSet(ctx context.Context, url string) ([]models.Question, error)
}

// Notifier recibe aviso cuando una descarga en segundo plano cambió la pantalla de una sesión
type Notifier interface {
	NotifySession(sessionID string)
}

// Session estado de navegación de un navegador (o chat) y su ancho de ventana reportado
type Session struct {
	ID string

	mu           sync.Mutex
	machine      *navigation.Machine
	width        int
	lastActivity time.Time
}

// SessionOptions parámetros del servicio de sesiones
type SessionOptions struct {
	TTL          time.Duration
	FetchTimeout time.Duration
}

// SessionService mantiene las sesiones en memoria y ejecuta las descargas que piden las transiciones
type SessionService struct {
	catalogs  CatalogLoader
	questions QuestionLoader
	notifier  Notifier

	mu       sync.RWMutex
	sessions map[string]*Session

	ttl          time.Duration
	fetchTimeout time.Duration
	baseCtx      context.Context
	wg           sync.WaitGroup
	now          func() time.Time
}

// NewSessionService crea una nueva instancia del servicio de sesiones.
// ctx acota la vida de las descargas en segundo plano.
func NewSessionService(ctx context.Context, catalogs CatalogLoader, questions QuestionLoader, opts SessionOptions) *SessionService {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Hour
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	return &SessionService{
		catalogs:     catalogs,
		questions:    questions,
		sessions:     make(map[string]*Session),
		ttl:          opts.TTL,
		fetchTimeout: opts.FetchTimeout,
		baseCtx:      ctx,
		now:          time.Now,
	}
}

// SetNotifier permite inyectar quien empuja las pantallas actualizadas a los clientes
func (s *SessionService) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// CreateSession crea una sesión con identificador aleatorio y lanza la carga del índice
func (s *SessionService) CreateSession() *Session {
	return s.CreateSessionWithID(uuid.New().String())
}

// CreateSessionWithID crea (o reemplaza) la sesión id y lanza la carga del índice
func (s *SessionService) CreateSessionWithID(id string) *Session {
	session := &Session{
		ID:           id,
		machine:      navigation.New(),
		lastActivity: s.now(),
	}

	s.mu.Lock()
	s.sessions[id] = session
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	logger.Log.Info("✅ Nueva sesión creada", zap.String("session", id))

	s.runEffect(session, session.machine.Start())
	return session
}

// GetSession obtiene una sesión por ID
func (s *SessionService) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DeleteSession elimina una sesión
func (s *SessionService) DeleteSession(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.ActiveSessions.Set(float64(count))
}

// Snapshot devuelve una copia del estado de navegación y el ancho de ventana de la sesión
func (s *SessionService) Snapshot(id string) (models.NavigationState, int, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return models.NavigationState{}, 0, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.machine.State(), session.width, nil
}

// Dispatch aplica una acción del usuario y lanza la descarga que la transición requiera
func (s *SessionService) Dispatch(id string, action models.Action) (models.NavigationState, error) {
	session, err := s.GetSession(id)
	if err != nil {
		return models.NavigationState{}, err
	}

	session.mu.Lock()
	effect, applyErr := session.machine.Apply(action)
	state := session.machine.State()
	session.lastActivity = s.now()
	session.mu.Unlock()

	result := "ok"
	if applyErr != nil {
		result = "rejected"
		logger.Log.Debug("Transición rechazada",
			zap.String("session", id),
			zap.String("action", string(action.Type)),
			zap.Error(applyErr))
	}
	metrics.Transitions.WithLabelValues(string(action.Type), result).Inc()

	s.runEffect(session, effect)
	return state, applyErr
}

// SetViewport registra el ancho de ventana reportado por el cliente
func (s *SessionService) SetViewport(id string, width int) error {
	session, err := s.GetSession(id)
	if err != nil {
		return err
	}
	session.mu.Lock()
	session.width = width
	session.lastActivity = s.now()
	session.mu.Unlock()
	return nil
}

func (s *SessionService) runEffect(session *Session, effect navigation.Effect) {
	switch effect.Kind {
	case navigation.EffectFetchCatalog:
		s.goFetch(func(ctx context.Context) {
			catalog, err := s.catalogs.LoadCatalog(ctx)

			session.mu.Lock()
			if err != nil {
				logger.Log.Warn("⚠️ Error cargando índice", zap.String("session", session.ID), zap.Error(err))
				err = session.machine.CatalogFailed(err)
			} else {
				err = session.machine.CatalogLoaded(catalog)
			}
			session.mu.Unlock()

			if err != nil {
				logger.Log.Debug("Resultado del índice descartado", zap.String("session", session.ID), zap.Error(err))
				return
			}
			s.notify(session.ID)
		})

	case navigation.EffectFetchQuestions:
		url := effect.URL
		s.goFetch(func(ctx context.Context) {
			questions, err := s.questions.LoadQuestionSet(ctx, url)

			session.mu.Lock()
			if err != nil {
				logger.Log.Warn("⚠️ Error cargando preguntas", zap.String("session", session.ID), zap.String("url", url), zap.Error(err))
				err = session.machine.QuestionsFailed(url, err)
			} else {
				err = session.machine.QuestionsLoaded(url, questions)
			}
			session.mu.Unlock()

			if err != nil {
				logger.Log.Debug("Resultado del cuestionario descartado", zap.String("session", session.ID), zap.Error(err))
				return
			}
			s.notify(session.ID)
		})
	}
}

func (s *SessionService) goFetch(fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.baseCtx, s.fetchTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (s *SessionService) notify(id string) {
	s.mu.RLock()
	n := s.notifier
	s.mu.RUnlock()
	if n != nil {
		n.NotifySession(id)
	}
}

// Wait espera a que terminen las descargas en curso
func (s *SessionService) Wait() {
	s.wg.Wait()
}

// Sweep elimina las sesiones inactivas por más de TTL y devuelve cuántas eliminó
func (s *SessionService) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		session.mu.Lock()
		expired := session.lastActivity.Before(cutoff)
		session.mu.Unlock()
		if expired {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	if removed > 0 {
		logger.Log.Info("🧹 Sesiones expiradas eliminadas", zap.Int("removed", removed), zap.Int("remaining", count))
	}
	return removed
}

// StartJanitor ejecuta Sweep periódicamente hasta que ctx termine
func (s *SessionService) StartJanitor(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Count número de sesiones en memoria
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Session) String() string {
	return fmt.Sprintf("session(%s)", s.ID)
}
