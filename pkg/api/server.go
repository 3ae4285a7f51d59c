package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/streamcc/pkg/graphcc"
)

// NewServer builds the HTTP server for the control surface, wiring the
// logging/CORS/recovery middleware chain the teacher's backend uses.
func NewServer(addr string, graph *graphcc.Graph, log zerolog.Logger) *http.Server {
	handlers := NewHandlers(graph, log)
	router := mux.NewRouter()
	SetupRoutes(router, handlers)

	router.Use(LoggingMiddleware(log))
	router.Use(CORSMiddleware)
	router.Use(RecoveryMiddleware(log))

	return &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
