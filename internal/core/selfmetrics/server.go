package selfmetrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// TargetStatus is what /targets reports for each configured target
type TargetStatus struct {
	Label       string `json:"label"`
	Host        string `json:"host"`
	Port        int    `json:"port"`
	InfoMetrics int    `json:"infoMetrics"`
	KeyMetrics  int    `json:"keyMetrics"`
}

// StatusProvider supplies the target list for the status endpoint
type StatusProvider interface {
	TargetStatuses() []TargetStatus
}

// Server serves the internal metrics and status
type Server struct {
	server *http.Server
}

// NewRouter builds the routes of the status server
func NewRouter(m *Metrics, status StatusProvider) *mux.Router {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc("/targets", func(rw http.ResponseWriter, req *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		statuses := []TargetStatus{}
		if status != nil {
			statuses = append(statuses, status.TargetStatuses()...)
		}
		if err := json.NewEncoder(rw).Encode(statuses); err != nil {
			log.WithError(err).Error("Could not write target status")
		}
	}).Methods(http.MethodGet)
	return router
}

// StartServer starts serving on host:port in the background
func StartServer(host string, port uint16, m *Metrics, status StatusProvider) *Server {
	s := &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			Handler:           NewRouter(m, status),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	go func() {
		log.Infof("Serving internal status at %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Internal status server stopped")
		}
	}()
	return s
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
