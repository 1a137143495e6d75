package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/backsoul/quizcatalog/pkg/models"
	"github.com/backsoul/quizcatalog/pkg/services"
	"github.com/backsoul/quizcatalog/pkg/view"
	websocketHub "github.com/backsoul/quizcatalog/pkg/websocket"
	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

type stubCatalogs struct{}

func (stubCatalogs) LoadCatalog(ctx context.Context) (*models.Catalog, error) {
	return &models.Catalog{Subjects: []models.Subject{
		{Name: "Historia", Topics: []models.Topic{{Name: "Antigua", URL: "https://q/ant"}}},
		{Name: "Química", URL: "https://q/quim"},
	}}, nil
}

type stubQuestions struct{}

func (stubQuestions) LoadQuestionSet(ctx context.Context, url string) ([]models.Question, error) {
	if url != "https://q/ant" {
		return nil, errors.New("error al cargar las preguntas (404)")
	}
	return []models.Question{
		{ID: models.NewNumericID(1), Question: "¿Quién construyó las pirámides?", Options: []string{"Egipcios", "Romanos"}, Correct: 0, Explanation: "Egipto"},
	}, nil
}

type testEnv struct {
	sessions *services.SessionService
	client   *fasthttp.Client
	ln       *fasthttputil.InmemoryListener
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	sessions := services.NewSessionService(ctx, stubCatalogs{}, stubQuestions{}, services.SessionOptions{})
	hub := websocketHub.NewHub()
	go hub.Run(ctx)

	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	quiz := NewQuizHandler(sessions, renderer, hub, view.DefaultBreakpoint)
	sessions.SetNotifier(quiz)
	health := NewHealthHandler(services.NewMemoryCache(), "memory", sessions, hub)

	router := NewRouter(quiz, health, func(ctx *fasthttp.RequestCtx) {
		ctx.SetBodyString("# metrics")
	})

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: router}
	go srv.Serve(ln)

	t.Cleanup(func() {
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), time.Second)
		defer done()
		srv.ShutdownWithContext(shutdownCtx)
		sessions.Wait()
	})

	return &testEnv{
		sessions: sessions,
		ln:       ln,
		client: &fasthttp.Client{
			Dial: func(addr string) (net.Conn, error) { return ln.Dial() },
		},
	}
}

type result struct {
	status   int
	body     []byte
	location string
	cookie   string
}

func (e *testEnv) do(t *testing.T, method, path, contentType, body, sid string) result {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI("http://quiz.test" + path)
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if body != "" {
		req.SetBodyString(body)
	}
	if sid != "" {
		req.Header.SetCookie(SessionCookie, sid)
	}

	if err := e.client.Do(req, resp); err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}

	r := result{
		status:   resp.StatusCode(),
		body:     append([]byte(nil), resp.Body()...),
		location: string(resp.Header.Peek("Location")),
	}
	if raw := resp.Header.PeekCookie(SessionCookie); len(raw) > 0 {
		var c fasthttp.Cookie
		if err := c.ParseBytes(raw); err == nil {
			r.cookie = string(c.Value())
		}
	}
	return r
}

type screenResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    view.ScreenView `json:"data"`
}

func decodeScreen(t *testing.T, r result) screenResponse {
	t.Helper()
	var sr screenResponse
	if err := json.Unmarshal(r.body, &sr); err != nil {
		t.Fatalf("decode %s: %v", r.body, err)
	}
	return sr
}

func TestQuizFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, "GET", "/", "", "", "")
	if first.status != fasthttp.StatusOK {
		t.Fatalf("GET / status = %d", first.status)
	}
	if first.cookie == "" {
		t.Fatal("expected a session cookie")
	}
	sid := first.cookie
	env.sessions.Wait()

	state := decodeScreen(t, env.do(t, "GET", "/api/state", "", "", sid))
	if state.Data.Screen != models.ScreenMain || len(state.Data.Items) != 2 {
		t.Fatalf("state = %+v", state.Data)
	}

	r := env.do(t, "POST", "/api/actions", "application/json", `{"action":"selectSubject","subject":"Historia"}`, sid)
	if s := decodeScreen(t, r); s.Data.Screen != models.ScreenSubject || s.Data.Subtitle != "Historia" {
		t.Fatalf("after selectSubject = %+v", s.Data)
	}

	r = env.do(t, "POST", "/action", "application/x-www-form-urlencoded", "action=selectTopic&topic=Antigua", sid)
	if r.status != fasthttp.StatusSeeOther || !strings.HasSuffix(r.location, "quiz.test/") {
		t.Fatalf("form action = %d, location %q", r.status, r.location)
	}
	env.sessions.Wait()

	state = decodeScreen(t, env.do(t, "GET", "/api/state", "", "", sid))
	if state.Data.Screen != models.ScreenQuiz || state.Data.Quiz == nil {
		t.Fatalf("state = %+v", state.Data)
	}

	r = env.do(t, "POST", "/api/actions", "application/json", `{"action":"next"}`, sid)
	if r.status != fasthttp.StatusConflict {
		t.Errorf("next before answer status = %d", r.status)
	}

	r = env.do(t, "POST", "/api/actions", "application/json", `{"action":"answer"}`, sid)
	if r.status != fasthttp.StatusBadRequest {
		t.Errorf("answer without option status = %d", r.status)
	}
	r = env.do(t, "POST", "/action", "application/x-www-form-urlencoded", "action=answer", sid)
	if r.status != fasthttp.StatusBadRequest {
		t.Errorf("form answer without option status = %d", r.status)
	}

	// option 0 sigue libre: las respuestas sin opción no bloquearon la pregunta
	r = env.do(t, "POST", "/api/actions", "application/json", `{"action":"answer","option":0}`, sid)
	answered := decodeScreen(t, r)
	if q := answered.Data.Quiz; q == nil || q.Options[0].StateClass != "button-selected-correct" || q.NextLabel != "Ver resultado" {
		t.Fatalf("after answer = %+v", answered.Data.Quiz)
	}

	env.do(t, "POST", "/action", "application/x-www-form-urlencoded", "action=next", sid)
	page := env.do(t, "GET", "/", "", "", sid)
	if !strings.Contains(string(page.body), "Acertaste 1 de 1 preguntas") {
		t.Errorf("score page missing summary:\n%s", page.body)
	}
	if page.cookie != "" {
		t.Error("known session should not get a new cookie")
	}
}

func TestUnknownSelectionShowsErrorScreen(t *testing.T) {
	env := newTestEnv(t)
	sid := env.do(t, "GET", "/", "", "", "").cookie
	env.sessions.Wait()

	r := env.do(t, "POST", "/api/actions", "application/json", `{"action":"selectSubject","subject":"Arte"}`, sid)
	s := decodeScreen(t, r)
	if r.status != fasthttp.StatusOK || s.Data.Screen != models.ScreenError || s.Data.Error != "materia no encontrada" {
		t.Errorf("status %d, view %+v", r.status, s.Data)
	}
}

func TestViewportQueryParam(t *testing.T) {
	env := newTestEnv(t)
	sid := env.do(t, "GET", "/", "", "", "").cookie
	env.sessions.Wait()

	if s := decodeScreen(t, env.do(t, "GET", "/api/state", "", "", sid)); s.Data.Mobile {
		t.Error("unknown width should render desktop")
	}
	s := decodeScreen(t, env.do(t, "GET", "/api/state?vw=375", "", "", sid))
	if !s.Data.Mobile || s.Data.DeviceHint != "Estás usando un teléfono celular" {
		t.Errorf("view = %+v", s.Data)
	}
}

func TestForgedSessionCookieIsReplaced(t *testing.T) {
	env := newTestEnv(t)
	r := env.do(t, "GET", "/", "", "", "tg:1")
	if r.cookie == "" || r.cookie == "tg:1" {
		t.Errorf("cookie = %q", r.cookie)
	}
}

func TestAPIErrors(t *testing.T) {
	env := newTestEnv(t)

	if r := env.do(t, "POST", "/api/actions", "application/json", `{`, ""); r.status != fasthttp.StatusBadRequest {
		t.Errorf("invalid json status = %d", r.status)
	}
	if r := env.do(t, "POST", "/api/actions", "application/json", `{}`, ""); r.status != fasthttp.StatusBadRequest {
		t.Errorf("missing action status = %d", r.status)
	}
	if r := env.do(t, "GET", "/nope", "", "", ""); r.status != fasthttp.StatusNotFound {
		t.Errorf("unknown route status = %d", r.status)
	}
	if r := env.do(t, "OPTIONS", "/api/actions", "", "", ""); r.status != fasthttp.StatusOK {
		t.Errorf("preflight status = %d", r.status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	r := env.do(t, "GET", "/api/health", "", "", "")
	if r.status != fasthttp.StatusOK || !strings.Contains(string(r.body), `"status":"healthy"`) {
		t.Errorf("health = %d %s", r.status, r.body)
	}

	r = env.do(t, "GET", "/metrics", "", "", "")
	if string(r.body) != "# metrics" {
		t.Errorf("metrics body = %s", r.body)
	}
}

func TestWebSocketPushAndResize(t *testing.T) {
	env := newTestEnv(t)
	sid := env.do(t, "GET", "/", "", "", "").cookie
	env.sessions.Wait()

	dialer := websocket.Dialer{
		NetDial:          func(network, addr string) (net.Conn, error) { return env.ln.Dial() },
		HandshakeTimeout: 2 * time.Second,
	}
	conn, _, err := dialer.Dial("ws://quiz.test/ws", http.Header{"Cookie": {SessionCookie + "=" + sid}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readScreen := func() view.ScreenView {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg struct {
			Type string          `json:"type"`
			Data view.ScreenView `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type != websocketHub.MessageScreen {
			t.Fatalf("type = %q", msg.Type)
		}
		return msg.Data
	}

	if v := readScreen(); v.Screen != models.ScreenMain || v.Mobile {
		t.Fatalf("initial push = %+v", v)
	}

	if err := conn.WriteJSON(websocketHub.ClientMessage{Type: websocketHub.MessageResize, Width: 600}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if v := readScreen(); !v.Mobile {
		t.Errorf("after resize = %+v", v)
	}
}

func TestWebSocketRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	dialer := websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) { return env.ln.Dial() },
	}
	_, resp, err := dialer.Dial("ws://quiz.test/ws", nil)
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("resp = %+v", resp)
	}
}
