package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/backsoul/quizcatalog/pkg/logger"
	"github.com/backsoul/quizcatalog/pkg/models"
	"github.com/backsoul/quizcatalog/pkg/navigation"
	"github.com/backsoul/quizcatalog/pkg/services"
	"github.com/backsoul/quizcatalog/pkg/view"
	websocketHub "github.com/backsoul/quizcatalog/pkg/websocket"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	SessionCookie  = "quiz_sid"
	ViewportCookie = "vw"
)

// QuizHandler sirve las pantallas del quiz y recibe las acciones del usuario
type QuizHandler struct {
	sessions   *services.SessionService
	renderer   *view.Renderer
	hub        *websocketHub.Hub
	breakpoint int
}

// NewQuizHandler crea una nueva instancia del handler del quiz
func NewQuizHandler(sessions *services.SessionService, renderer *view.Renderer, hub *websocketHub.Hub, breakpoint int) *QuizHandler {
	return &QuizHandler{
		sessions:   sessions,
		renderer:   renderer,
		hub:        hub,
		breakpoint: breakpoint,
	}
}

// Index maneja GET /
func (h *QuizHandler) Index(ctx *fasthttp.RequestCtx) {
	id := h.ensureSession(ctx)
	h.applyViewport(ctx, id)

	v, err := h.screen(id)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, v); err != nil {
		logger.Log.Error("Error renderizando pantalla", zap.String("screen", string(v.Screen)), zap.Error(err))
		ctx.Error("Error renderizando pantalla", fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("text/html; charset=utf-8")
	ctx.SetBody(buf.Bytes())
}

const msgOptionRequired = "La opción es requerida"

// actionRequest cuerpo de POST /api/actions; option es obligatorio para answer
type actionRequest struct {
	Action  models.ActionType `json:"action"`
	Subject string            `json:"subject"`
	Topic   string            `json:"topic"`
	Option  *int              `json:"option"`
}

// FormAction maneja POST /action desde los formularios HTML y redirige a /
func (h *QuizHandler) FormAction(ctx *fasthttp.RequestCtx) {
	id := h.ensureSession(ctx)

	args := ctx.PostArgs()
	action := models.Action{
		Type:    models.ActionType(args.Peek("action")),
		Subject: string(args.Peek("subject")),
		Topic:   string(args.Peek("topic")),
	}
	if raw := args.Peek("option"); len(raw) > 0 {
		option, err := strconv.Atoi(string(raw))
		if err != nil {
			ctx.Error("Opción inválida", fasthttp.StatusBadRequest)
			return
		}
		action.Option = option
	} else if action.Type == models.ActionAnswer {
		ctx.Error(msgOptionRequired, fasthttp.StatusBadRequest)
		return
	}

	// Una acción rechazada deja la pantalla como estaba; la página se vuelve a dibujar igual
	if _, err := h.sessions.Dispatch(id, action); err != nil && !isSelectionError(err) {
		logger.Log.Debug("Acción de formulario rechazada", zap.String("session", id), zap.Error(err))
	}

	ctx.Redirect("/", fasthttp.StatusSeeOther)
}

// State maneja GET /api/state
func (h *QuizHandler) State(ctx *fasthttp.RequestCtx) {
	id := h.ensureSession(ctx)
	h.applyViewport(ctx, id)

	v, err := h.screen(id)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(ctx, v, "Pantalla actual")
}

// Actions maneja POST /api/actions
func (h *QuizHandler) Actions(ctx *fasthttp.RequestCtx) {
	var req actionRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, "JSON inválido")
		return
	}
	if req.Action == "" {
		respondWithError(ctx, fasthttp.StatusBadRequest, "La acción es requerida")
		return
	}
	if req.Action == models.ActionAnswer && req.Option == nil {
		respondWithError(ctx, fasthttp.StatusBadRequest, msgOptionRequired)
		return
	}

	action := models.Action{Type: req.Action, Subject: req.Subject, Topic: req.Topic}
	if req.Option != nil {
		action.Option = *req.Option
	}

	id := h.ensureSession(ctx)
	_, err := h.sessions.Dispatch(id, action)
	switch {
	case err == nil, isSelectionError(err):
		// Una selección desconocida lleva a la pantalla de error, que se devuelve normalmente
	case errors.Is(err, services.ErrSessionNotFound):
		respondWithError(ctx, fasthttp.StatusNotFound, err.Error())
		return
	default:
		respondWithError(ctx, fasthttp.StatusConflict, err.Error())
		return
	}

	v, err := h.screen(id)
	if err != nil {
		respondWithError(ctx, fasthttp.StatusInternalServerError, err.Error())
		return
	}
	respondWithSuccess(ctx, v, "Acción aplicada")
}

// NotifySession empuja la pantalla actual a las páginas abiertas de la sesión
func (h *QuizHandler) NotifySession(sessionID string) {
	v, err := h.screen(sessionID)
	if err != nil {
		logger.Log.Debug("No se pudo notificar la sesión", zap.String("session", sessionID), zap.Error(err))
		return
	}
	h.hub.SendToSession(sessionID, websocketHub.MessageScreen, v)
}

func (h *QuizHandler) screen(id string) (view.ScreenView, error) {
	state, width, err := h.sessions.Snapshot(id)
	if err != nil {
		return view.ScreenView{}, err
	}
	return view.Build(state, view.Classify(width, h.breakpoint)), nil
}

// ensureSession devuelve la sesión de la cookie o crea una nueva
func (h *QuizHandler) ensureSession(ctx *fasthttp.RequestCtx) string {
	if id := sessionFromCookie(ctx); id != "" {
		if _, err := h.sessions.GetSession(id); err == nil {
			return id
		}
	}

	session := h.sessions.CreateSession()

	var cookie fasthttp.Cookie
	cookie.SetKey(SessionCookie)
	cookie.SetValue(session.ID)
	cookie.SetPath("/")
	cookie.SetHTTPOnly(true)
	cookie.SetSameSite(fasthttp.CookieSameSiteLaxMode)
	ctx.Response.Header.SetCookie(&cookie)

	return session.ID
}

// applyViewport toma el ancho de ?vw= o de la cookie vw, si viene
func (h *QuizHandler) applyViewport(ctx *fasthttp.RequestCtx, id string) {
	width := ctx.QueryArgs().GetUintOrZero("vw")
	if width == 0 {
		width, _ = strconv.Atoi(string(ctx.Request.Header.Cookie(ViewportCookie)))
	}
	if width > 0 {
		_ = h.sessions.SetViewport(id, width)
	}
}

// sessionFromCookie solo acepta identificadores emitidos por la web
func sessionFromCookie(ctx *fasthttp.RequestCtx) string {
	raw := string(ctx.Request.Header.Cookie(SessionCookie))
	if _, err := uuid.Parse(raw); err != nil {
		return ""
	}
	return raw
}

func isSelectionError(err error) bool {
	return errors.Is(err, navigation.ErrSubjectNotFound) || errors.Is(err, navigation.ErrTopicNotFound)
}
