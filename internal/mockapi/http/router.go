package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/learnhub/internal/mockapi/service"
	"github.com/aussiebroadwan/learnhub/internal/mockapi/store"
	"github.com/aussiebroadwan/learnhub/pkg/httpx"
	"github.com/aussiebroadwan/learnhub/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	Metrics     *Metrics
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          *store.Memory
	TokenService   *service.TokenService
	AuthService    *service.AuthService
	CourseService  *service.CourseService
	PaymentService *service.PaymentService
}

func NewRouter(buildVersion string, st *store.Memory, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		Metrics:      NewMetrics(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		r.Metrics.Middleware,
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerUsers()
	r.registerCourses()
	r.registerContent()
	r.registerAuthoring()
	r.registerReviews()
	r.registerPayments()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.TokenService)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService, Store: r.store}

	// Login is limited per IP + email so one address cannot be brute forced
	// from many accounts' worth of attempts.
	r.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIPAndJSONField(httpx.LoginLimit, "email"),
		),
	)
	r.Mux.HandleFunc("POST /auth/signup", h.HandleSignup)
	r.Mux.Handle("POST /otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyOTP),
			httpx.RateLimitByIPAndJSONField(httpx.LoginLimit, "email"),
		),
	)
	r.Mux.HandleFunc("POST /auth/refreshtoken", h.HandleRefresh)
	r.Mux.HandleFunc("POST /auth/logout", h.HandleLogout)

	r.Mux.Handle("GET /auth/validate", httpx.Chain(http.HandlerFunc(h.HandleValidate), r.authn()))
	r.Mux.Handle("GET /auth/profile", httpx.Chain(http.HandlerFunc(h.HandleValidate), r.authn()))
}

func (r *Router) registerUsers() {
	h := &UserHandler{AuthService: r.AuthService, Store: r.store}

	r.Mux.Handle("GET /users/getprofile", httpx.Chain(http.HandlerFunc(h.HandleGetProfile), r.authn()))
	r.Mux.Handle("PUT /users/updateprofile", httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile), r.authn()))
	r.Mux.Handle("POST /educator/register", httpx.Chain(http.HandlerFunc(h.HandleRegisterEducator), r.authn()))
}

func (r *Router) registerCourses() {
	h := NewCourseHandler(r.CourseService, r.authn())

	r.Mux.HandleFunc("GET /courses/all", h.HandleAll)
	r.Mux.HandleFunc("GET /courses/search", h.HandleSearch)
	// single/{id}, educator/{id}, {id}/ownership and {id}/access share one
	// pattern; separate patterns would overlap.
	r.Mux.HandleFunc("GET /courses/{first}/{second}", h.HandleTwoSegment)
}

func (r *Router) registerContent() {
	h := &ContentHandler{CourseService: r.CourseService}

	r.Mux.Handle("GET /content/getAllModules/{courseId}", httpx.Chain(http.HandlerFunc(h.HandleModules), r.authn()))
	r.Mux.Handle("GET /content/getModuleStudyMaterials/{moduleId}", httpx.Chain(http.HandlerFunc(h.HandleMaterials), r.authn()))
	r.Mux.Handle("GET /content/getAllClassesOfCourse/{courseId}", httpx.Chain(http.HandlerFunc(h.HandleClasses), r.authn()))
	r.Mux.Handle("GET /content/getModuleClasses/{moduleId}", httpx.Chain(http.HandlerFunc(h.HandleModuleClasses), r.authn()))
	r.Mux.Handle("POST /content/saveVideoProgress", httpx.Chain(http.HandlerFunc(h.HandleSaveProgress), r.authn()))
}

func (r *Router) registerAuthoring() {
	h := &AuthoringHandler{CourseService: r.CourseService}
	authed := func(fn http.HandlerFunc) http.Handler { return httpx.Chain(fn, r.authn()) }

	r.Mux.Handle("POST /courses/create", authed(h.HandleCreateCourse))
	r.Mux.Handle("PUT /courses/update/{courseId}", authed(h.HandleUpdateCourse))
	r.Mux.Handle("DELETE /courses/delete/{courseId}", authed(h.HandleDeleteCourse))

	r.Mux.Handle("POST /content/createModule", authed(h.HandleCreateModule))
	r.Mux.Handle("PUT /content/updateModule/{moduleId}", authed(h.HandleUpdateModule))
	r.Mux.Handle("DELETE /content/module/{moduleId}", authed(h.HandleDeleteModule))

	r.Mux.Handle("POST /content/uploadStudyMaterial", authed(h.HandleUploadMaterial))
	r.Mux.Handle("PUT /content/updateStudymaterial/{materialId}", authed(h.HandleUpdateMaterial))
	r.Mux.Handle("DELETE /content/deleteStudyMaterial/{materialId}", authed(h.HandleDeleteMaterial))

	// Class creation is addressed by module id directly under /content; the
	// literal POST routes above take precedence.
	r.Mux.Handle("POST /content/{moduleId}", authed(h.HandleCreateClass))
	r.Mux.Handle("PUT /content/class/{classId}", authed(h.HandleUpdateClass))
	r.Mux.Handle("DELETE /content/deleteClass/{classId}", authed(h.HandleDeleteClass))
}

func (r *Router) registerReviews() {
	h := &ReviewHandler{CourseService: r.CourseService}

	r.Mux.HandleFunc("GET /reviews/{courseId}", h.HandleList)
	r.Mux.Handle("POST /reviews/{courseId}", httpx.Chain(http.HandlerFunc(h.HandleCreate), r.authn()))
}

func (r *Router) registerPayments() {
	h := &PaymentHandler{PaymentService: r.PaymentService}

	r.Mux.Handle("POST /payment/createOrder", httpx.Chain(http.HandlerFunc(h.HandleCreateOrder), r.authn()))
	r.Mux.Handle("POST /payment/verify", httpx.Chain(http.HandlerFunc(h.HandleVerify), r.authn()))

	// Sandbox stand-in for the hosted payment widget.
	r.Mux.HandleFunc("POST /gateway/pay", h.HandleGatewayPay)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}
