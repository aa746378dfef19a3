package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/domain"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/announcement"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/auth"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/service/quiz"
	"github.com/Abdelrahman678/Announcements-Quizzes-Backend/internal/ws"
)

// apiHandler is the uniform handler shape. Returned failures are mapped
// to responses in exactly one place (Router.handle); handlers never
// format their own error responses.
type apiHandler func(http.ResponseWriter, *http.Request) error

// Router wires HTTP endpoints to services.
type Router struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	auth          auth.Service
	announcements announcement.Service
	quizzes       quiz.Service
	hub           *ws.Hub
	upgrader      websocket.Upgrader
	limiter       RateLimiter
	dbHealth      func(context.Context) error
	wsReadLimit   int64

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitSignup    = 5
	rateLimitSignin    = 12
	rateLimitSignout   = 30
	rateLimitRead      = 120
	rateLimitWrite     = 60
	rateLimitWebsocket = 30
	healthCheckTimeout = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, announcementSvc announcement.Service, quizSvc quiz.Service, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error, wsReadLimit int64) *Router {
	r := &Router{
		mux:           http.NewServeMux(),
		logger:        logger,
		auth:          authSvc,
		announcements: announcementSvc,
		quizzes:       quizSvc,
		hub:           hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:     limiter,
		dbHealth:    dbHealth,
		wsReadLimit: wsReadLimit,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to the underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	// catch-all: the path check must run before method dispatch so an
	// unknown route is a 404 regardless of method
	r.mux.HandleFunc("/", r.audit(r.handle(r.handleHome)))
	r.mux.HandleFunc("/healthz", r.route(map[string]apiHandler{
		http.MethodGet: r.handleHealthz,
	}))
	r.mux.Handle("/metrics", promhttp.Handler())

	r.mux.HandleFunc("/auth/sign-up", r.route(map[string]apiHandler{
		http.MethodPost: r.withRateLimit("auth_signup", rateLimitSignup, rateWindowDefault, rateLimitKeyIP, r.handleSignUp),
	}))
	r.mux.HandleFunc("/auth/sign-in", r.route(map[string]apiHandler{
		http.MethodPost: r.withRateLimit("auth_signin", rateLimitSignin, rateWindowDefault, rateLimitKeyIP, r.handleSignIn),
	}))
	r.mux.HandleFunc("/auth/sign-out", r.route(map[string]apiHandler{
		http.MethodPost: r.withRateLimit("auth_signout", rateLimitSignout, rateWindowDefault, rateLimitKeyIP, r.handleSignOut),
	}))

	r.mux.HandleFunc("/announcements", r.route(map[string]apiHandler{
		http.MethodGet:  r.withRateLimit("announcements_read", rateLimitRead, rateWindowDefault, rateLimitKeyIP, r.handleListAnnouncements),
		http.MethodPost: r.handlerAuthRate("announcements_write", rateLimitWrite, rateWindowDefault, r.handleCreateAnnouncement),
	}))
	r.mux.HandleFunc("/announcements/", r.route(map[string]apiHandler{
		http.MethodGet:    r.withRateLimit("announcements_read", rateLimitRead, rateWindowDefault, rateLimitKeyIP, r.handleGetAnnouncement),
		http.MethodPut:    r.handlerAuthRate("announcements_write", rateLimitWrite, rateWindowDefault, r.handleUpdateAnnouncement),
		http.MethodDelete: r.handlerAuthRate("announcements_write", rateLimitWrite, rateWindowDefault, r.handleDeleteAnnouncement),
	}))

	r.mux.HandleFunc("/quizzes", r.route(map[string]apiHandler{
		http.MethodGet:  r.handlerAuthRate("quizzes_read", rateLimitRead, rateWindowDefault, r.handleListQuizzes),
		http.MethodPost: r.handlerAuthRate("quizzes_write", rateLimitWrite, rateWindowDefault, r.handleCreateQuiz),
	}))
	r.mux.HandleFunc("/quizzes/", r.route(map[string]apiHandler{
		http.MethodGet:    r.handlerAuthRate("quizzes_read", rateLimitRead, rateWindowDefault, r.handleGetQuiz),
		http.MethodPut:    r.handlerAuthRate("quizzes_write", rateLimitWrite, rateWindowDefault, r.handleUpdateQuiz),
		http.MethodDelete: r.handlerAuthRate("quizzes_write", rateLimitWrite, rateWindowDefault, r.handleDeleteQuiz),
	}))

	r.mux.HandleFunc("/ws/announcements", r.route(map[string]apiHandler{
		http.MethodGet: r.handlerAuthRate("announcements_feed", rateLimitWebsocket, rateWindowRealtime, r.handleAnnouncementsFeed),
	}))
}

// route dispatches by method and applies the audit and failure-boundary
// wrappers exactly once per request.
func (r *Router) route(methods map[string]apiHandler) http.HandlerFunc {
	return r.audit(r.handle(func(w http.ResponseWriter, req *http.Request) error {
		next, ok := methods[req.Method]
		if !ok {
			return NewError(http.StatusMethodNotAllowed, "method not allowed")
		}
		return next(w, req)
	}))
}

// handle is the single failure boundary: it invokes the handler once,
// recovers panics, and maps any propagated failure to a response. Known
// kinds keep their stable messages; unexpected ones are logged with
// detail and surfaced generically.
func (r *Router) handle(next apiHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("handler panic", "panic", rec, "path", req.URL.Path)
				writeError(w, NewError(http.StatusInternalServerError, "something went wrong, please try again later"))
			}
		}()
		err := next(w, req)
		if err == nil {
			return
		}
		apiErr := mapError(err)
		if apiErr.Status >= http.StatusInternalServerError {
			r.logger.Error("handler failed", "error", err, "path", req.URL.Path)
		}
		writeError(w, apiErr)
	}
}

func (r *Router) handleHome(w http.ResponseWriter, req *http.Request) error {
	if req.URL.Path != "/" {
		return NewError(http.StatusNotFound, "page not found")
	}
	if req.Method != http.MethodGet {
		return NewError(http.StatusMethodNotAllowed, "method not allowed")
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to Announcements Quizzes Dashboard",
	})
	return nil
}

func (r *Router) handleSignUp(w http.ResponseWriter, req *http.Request) error {
	var payload signUpRequest
	if err := decodeJSON(req, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	user, err := r.auth.Signup(req.Context(), auth.SignupInput{
		Username: payload.Username,
		Email:    payload.Email,
		Password: payload.Password,
		Age:      payload.Age,
		Gender:   domain.Gender(payload.Gender),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "user created successfully",
		"data":    publicUser(user),
	})
	return nil
}

func (r *Router) handleSignIn(w http.ResponseWriter, req *http.Request) error {
	var payload signInRequest
	if err := decodeJSON(req, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	token, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "user logged in successfully",
		"access_token": token,
	})
	return nil
}

func (r *Router) handleSignOut(w http.ResponseWriter, req *http.Request) error {
	token, err := bearerToken(req.Header.Get("Authorization"))
	if err != nil {
		r.logger.Warn("sign-out without usable token", "error", err)
		return NewError(http.StatusUnauthorized, "authentication required")
	}
	if err := r.auth.Logout(req.Context(), token); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "user logged out successfully",
	})
	return nil
}

func (r *Router) handleListAnnouncements(w http.ResponseWriter, req *http.Request) error {
	list, err := r.announcements.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []domain.Announcement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "announcements retrieved successfully",
		"data":    list,
	})
	return nil
}

func (r *Router) handleGetAnnouncement(w http.ResponseWriter, req *http.Request) error {
	id, err := resourceID(req.URL.Path, "/announcements/")
	if err != nil {
		return err
	}
	a, err := r.announcements.Get(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "announcement retrieved successfully",
		"data":    a,
	})
	return nil
}

func (r *Router) handleCreateAnnouncement(w http.ResponseWriter, req *http.Request) error {
	identity, ok := identityFromContext(req.Context())
	if !ok {
		return errors.New("identity missing from authenticated request")
	}
	var payload createAnnouncementRequest
	if err := decodeJSON(req, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	a, err := r.announcements.Create(req.Context(), identity.UserID, announcement.CreateInput{
		Title:   payload.Title,
		Content: payload.Content,
		Course:  payload.Course,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "announcement created successfully",
		"data":    a,
	})
	return nil
}

func (r *Router) handleUpdateAnnouncement(w http.ResponseWriter, req *http.Request) error {
	identity, ok := identityFromContext(req.Context())
	if !ok {
		return errors.New("identity missing from authenticated request")
	}
	id, err := resourceID(req.URL.Path, "/announcements/")
	if err != nil {
		return err
	}
	var payload updateAnnouncementRequest
	if err := decodeJSON(req, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	a, err := r.announcements.Update(req.Context(), identity.UserID, id, announcement.UpdateInput{
		Title:   payload.Title,
		Content: payload.Content,
		Course:  payload.Course,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "announcement updated successfully",
		"data":    a,
	})
	return nil
}

func (r *Router) handleDeleteAnnouncement(w http.ResponseWriter, req *http.Request) error {
	identity, ok := identityFromContext(req.Context())
	if !ok {
		return errors.New("identity missing from authenticated request")
	}
	id, err := resourceID(req.URL.Path, "/announcements/")
	if err != nil {
		return err
	}
	if err := r.announcements.Delete(req.Context(), identity.UserID, id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "announcement deleted successfully",
	})
	return nil
}

func (r *Router) handleListQuizzes(w http.ResponseWriter, req *http.Request) error {
	list, err := r.quizzes.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "quizzes retrieved successfully",
		"data":    list,
	})
	return nil
}

func (r *Router) handleGetQuiz(w http.ResponseWriter, req *http.Request) error {
	id, err := resourceID(req.URL.Path, "/quizzes/")
	if err != nil {
		return err
	}
	q, err := r.quizzes.Get(req.Context(), id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "quiz retrieved successfully",
		"data":    q,
	})
	return nil
}

func (r *Router) handleCreateQuiz(w http.ResponseWriter, req *http.Request) error {
	identity, ok := identityFromContext(req.Context())
	if !ok {
		return errors.New("identity missing from authenticated request")
	}
	var payload createQuizRequest
	if err := decodeJSON(req, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	q, err := r.quizzes.Create(req.Context(), identity.UserID, quiz.CreateInput{
		Title:     payload.Title,
		Course:    payload.Course,
		Questions: toQuestions(payload.Questions),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "quiz created successfully",
		"data":    q,
	})
	return nil
}

func (r *Router) handleUpdateQuiz(w http.ResponseWriter, req *http.Request) error {
	identity, ok := identityFromContext(req.Context())
	if !ok {
		return errors.New("identity missing from authenticated request")
	}
	id, err := resourceID(req.URL.Path, "/quizzes/")
	if err != nil {
		return err
	}
	var payload updateQuizRequest
	if err := decodeJSON(req, &payload); err != nil {
		return err
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	in := quiz.UpdateInput{Title: payload.Title, Course: payload.Course}
	if payload.Questions != nil {
		in.Questions = toQuestions(payload.Questions)
	}
	q, err := r.quizzes.Update(req.Context(), identity.UserID, id, in)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "quiz updated successfully",
		"data":    q,
	})
	return nil
}

func (r *Router) handleDeleteQuiz(w http.ResponseWriter, req *http.Request) error {
	identity, ok := identityFromContext(req.Context())
	if !ok {
		return errors.New("identity missing from authenticated request")
	}
	id, err := resourceID(req.URL.Path, "/quizzes/")
	if err != nil {
		return err
	}
	if err := r.quizzes.Delete(req.Context(), identity.UserID, id); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "quiz deleted successfully",
	})
	return nil
}

func (r *Router) handleAnnouncementsFeed(w http.ResponseWriter, req *http.Request) error {
	course := strings.TrimSpace(req.URL.Query().Get("course"))
	if course == "" {
		return NewError(http.StatusBadRequest, "course query parameter required")
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return nil
	}
	if r.wsReadLimit > 0 {
		conn.SetReadLimit(r.wsReadLimit)
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(course, client)
	go func() {
		defer func() {
			r.hub.Unregister(course, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
	return nil
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) error {
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{"status": "down", "error": err.Error()}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
	return nil
}

// resourceID extracts the trailing id segment of a resource path.
func resourceID(path, prefix string) (string, error) {
	trimmed := strings.TrimPrefix(path, prefix)
	if trimmed == "" || strings.Contains(trimmed, "/") {
		return "", NewError(http.StatusNotFound, "page not found")
	}
	return trimmed, nil
}

// publicUser strips credentials from the user payload.
func publicUser(u *domain.User) map[string]any {
	return map[string]any{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"age":      u.Age,
		"gender":   u.Gender,
	}
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, req.URL.Path, status, duration)

		actor := "anonymous"
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}
		if identity, ok := identityFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", identity.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type contextSetter interface {
	SetContext(context.Context)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
