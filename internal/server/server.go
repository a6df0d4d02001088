package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bibharvest/bibharvest/internal/engine"
	"github.com/bibharvest/bibharvest/internal/logging"
	"github.com/bibharvest/bibharvest/internal/monitoring"
	"github.com/bibharvest/bibharvest/internal/translator"
)

// Server exposes the extraction engine over HTTP.
type Server struct {
	router  *gin.Engine
	httpSrv *http.Server
	engine  *engine.Engine
	catalog *translator.Catalog
	log     *logging.Logger
}

// New creates a server with routes registered. metrics may be nil.
func New(eng *engine.Engine, catalog *translator.Catalog, metrics *monitoring.Metrics, log *logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())
	if metrics != nil {
		router.Use(metrics.Middleware())
	}

	s := &Server{
		router:  router,
		engine:  eng,
		catalog: catalog,
		log:     log,
	}

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", monitoring.Handler())
	router.GET("/translators", s.handleListTranslators)
	router.GET("/translators/:id", s.handleGetTranslator)
	router.POST("/extract", s.handleExtract)

	return s
}

// Run starts the server on addr and blocks until shutdown.
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("server listening", zap.String("addr", addr))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// Router returns the underlying router, for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
