package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dtroode/chatdemo-server/internal/api/http/handler"
	"github.com/dtroode/chatdemo-server/internal/api/http/middleware"
	"github.com/dtroode/chatdemo-server/internal/logger"
	"github.com/dtroode/chatdemo-server/internal/model"
	"github.com/dtroode/chatdemo-server/internal/service"
)

// Router wires the chat API handlers into a chi mux.
type Router struct {
	sessionService *service.Session
	tokenManager   model.TokenManager
	contextManager model.ContextManager
	renderer       handler.CaptchaRenderer
	attachments    *service.Attachments
	connections    handler.ConnectionServer
	maxAttachment  int64
	logger         *logger.Logger
}

// Deps are the collaborators the router hands to its handlers.
type Deps struct {
	SessionService *service.Session
	TokenManager   model.TokenManager
	ContextManager model.ContextManager
	Renderer       handler.CaptchaRenderer
	Attachments    *service.Attachments
	Connections    handler.ConnectionServer
	MaxAttachment  int64
	Logger         *logger.Logger
}

// New creates new Router instance.
func New(deps Deps) *Router {
	return &Router{
		sessionService: deps.SessionService,
		tokenManager:   deps.TokenManager,
		contextManager: deps.ContextManager,
		renderer:       deps.Renderer,
		attachments:    deps.Attachments,
		connections:    deps.Connections,
		maxAttachment:  deps.MaxAttachment,
		logger:         deps.Logger,
	}
}

// Register builds the HTTP handler with request logging and authentication.
//
// Returns the configured router.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.tokenManager, r.contextManager, r.logger)

	session := handler.NewSession(r.sessionService, r.tokenManager, r.contextManager, r.renderer, r.logger)
	message := handler.NewMessage(r.sessionService, r.attachments, r.contextManager, r.logger)
	group := handler.NewGroup(r.sessionService, r.contextManager, r.logger)
	attachment := handler.NewAttachment(r.sessionService, r.attachments, r.contextManager, r.maxAttachment, r.logger)
	realtime := handler.NewRealtime(r.sessionService, r.connections, r.contextManager, r.logger)

	mux := chi.NewRouter()
	mux.Use(chimiddleware.RequestID)
	mux.Use(chimiddleware.Recoverer)
	mux.Use(logging.Handle)

	mux.Get("/healthz", handler.Health)

	mux.Route("/api", func(api chi.Router) {
		api.Post("/sessions", session.Start)

		api.Group(func(authed chi.Router) {
			authed.Use(authenticate.Handle)

			authed.Route("/session", func(s chi.Router) {
				s.Get("/", session.View)
				s.Delete("/", session.End)
				s.Get("/captcha", session.Captcha)
				s.Post("/captcha", session.RefreshCaptcha)
				s.Post("/login", session.Login)
				s.Post("/register/start", session.StartRegistration)
				s.Post("/register/cancel", session.CancelRegistration)
				s.Post("/register", session.Register)
				s.Post("/logout", session.Logout)
				s.Put("/target", session.SelectTarget)
				s.Put("/tab", session.SelectTab)
			})

			authed.Post("/messages", message.Send)
			authed.Post("/groups", group.Create)
			authed.Patch("/groups/{groupID}", group.Update)
			authed.Post("/attachments", attachment.Upload)
			authed.Get("/attachments/*", attachment.Download)
			authed.Delete("/attachments/*", attachment.Discard)
			authed.Get("/ws", realtime.Connect)
		})
	})

	return mux
}
