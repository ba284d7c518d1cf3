// Package router assembles the gin engine's route tree: health probes at
// the root and every registrar under /api/<version>.
package router

import (
	"github.com/erp/orderflow/internal/interfaces/http/dto"
	"github.com/erp/orderflow/internal/interfaces/http/handler"
	"github.com/erp/orderflow/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// RouteRegistrar is implemented by handlers that own a set of API routes.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

type Router struct {
	engine        *gin.Engine
	apiVersion    string
	health        *handler.HealthHandler
	apiMiddleware gin.HandlersChain
	registrars    []RouteRegistrar
}

type RouterOption func(*Router)

// WithAPIVersion replaces the default "v1" path segment.
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// WithHealth mounts /health/live and /health/ready. Probes skip the API
// middleware so they stay out of traces and request metrics.
func WithHealth(h *handler.HealthHandler) RouterOption {
	return func(r *Router) { r.health = h }
}

func WithAPIMiddleware(mw ...gin.HandlerFunc) RouterOption {
	return func(r *Router) { r.apiMiddleware = append(r.apiMiddleware, mw...) }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts all routes. Unknown paths and methods answer with the same
// JSON error envelope as the handlers.
func (r *Router) Setup() {
	if r.health != nil {
		probes := r.engine.Group("/health")
		probes.GET("/live", r.health.Live)
		probes.GET("/ready", r.health.Ready)
	}

	api := r.engine.Group("/api/"+r.apiVersion, r.apiMiddleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	r.engine.HandleMethodNotAllowed = true
	r.engine.NoRoute(fallback(dto.ErrCodeNotFound, "No route matches the request path"))
	r.engine.NoMethod(fallback(dto.ErrCodeMethodNotAllowed, "Method not allowed for this route"))
}

func fallback(code, message string) gin.HandlerFunc {
	status := dto.GetHTTPStatus(code)
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
	}
}

// Routes lists the mounted routes as "METHOD path", for startup logging.
func (r *Router) Routes() []string {
	infos := r.engine.Routes()
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Method+" "+info.Path)
	}
	return out
}
