package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes registers the control-surface endpoints on router.
func SetupRoutes(router *mux.Router, handlers *Handlers) {
	v1 := router.PathPrefix("/api/v1").Subrouter()

	v1.HandleFunc("/edges", handlers.InsertEdges).Methods("POST")
	v1.HandleFunc("/components", handlers.GetComponents).Methods("GET")
	v1.HandleFunc("/status", handlers.GetStatus).Methods("GET")
	v1.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
}
