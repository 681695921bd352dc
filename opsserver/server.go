// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package opsserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/dftimeline/tlstore/observability/logging"
	"github.com/dftimeline/tlstore/observability/metrics"
	"github.com/dftimeline/tlstore/storage"
)

// metadataProvider is satisfied by storage.SQLiteStore. MemoryStore
// does not implement it; /healthz simply omits those fields then.
type metadataProvider interface {
	Metadata() storage.Metadata
}

// tailFrame is the wire shape written to each /events/tail subscriber:
// the container's serialized identifier plus its runtime fields.
type tailFrame struct {
	Type       string                 `json:"type"`
	Identifier string                 `json:"identifier"`
	Fields     map[string]interface{} `json:"fields"`
}

// ServerConfig holds configuration for the operations HTTP server.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DefaultServerConfig returns default operations server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "127.0.0.1",
		Port:            8090,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		AllowedOrigins:  []string{"*"},
	}
}

// Server exposes health, metrics, and a live event tail for a Hub.
type Server struct {
	hub        *Hub
	config     ServerConfig
	httpServer *http.Server
	listener   net.Listener
	collector  metrics.Collector
	logger     logging.Logger
	instanceID string
	startedAt  time.Time

	upgrader websocket.Upgrader

	mu      sync.Mutex
	streams map[string]context.CancelFunc
}

// NewServer creates a new operations server wrapping hub. collector may
// be nil, in which case /metrics is not registered. A config with
// neither Host nor Port set is replaced by DefaultServerConfig; a Port
// of 0 with a Host set binds an OS-chosen port.
func NewServer(hub *Hub, config ServerConfig, collector metrics.Collector, logger logging.Logger) *Server {
	if config.Port == 0 && config.Host == "" {
		config = DefaultServerConfig()
	}
	if logger == nil {
		logger = logging.NewStructuredLogger(logging.LevelInfo)
	}

	return &Server{
		hub:        hub,
		config:     config,
		collector:  collector,
		logger:     logger,
		instanceID: uuid.New().String(),
		streams:    make(map[string]context.CancelFunc),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Start binds the listener and begins serving in the background. It
// returns once the listener is ready; serve errors are logged, not
// returned, mirroring a long-running server's fire-and-forget Start.
func (s *Server) Start() error {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/events/tail", s.handleEventsTail).Methods(http.MethodGet)
	if s.collector != nil {
		if h, ok := s.collector.(interface{ Handler() http.Handler }); ok {
			router.Handle("/metrics", h.Handler()).Methods(http.MethodGet)
		}
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:      corsMiddleware.Handler(router),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	s.startedAt = time.Now()

	s.logger.Info(context.Background(), "ops server listening",
		logging.String("addr", addr),
		logging.String("instance_id", s.instanceID))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error(context.Background(), "ops server stopped unexpectedly", logging.Error(err))
		}
	}()

	return nil
}

// Addr returns the address the server is listening on. Only valid
// after Start returns successfully.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server, cancelling all active tail
// subscriptions and waiting up to config.ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for id, cancel := range s.streams {
		s.logger.Info(ctx, "cancelling event tail", logging.String("stream_id", id))
		cancel()
	}
	s.streams = make(map[string]context.CancelFunc)
	s.mu.Unlock()

	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown ops server: %w", err)
	}

	s.logger.Info(ctx, "ops server stopped")
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":      "ok",
		"instance_id": s.instanceID,
		"uptime_sec":  time.Since(s.startedAt).Seconds(),
		"subscribers": s.hub.SubscriberCount(),
	}

	if mp, ok := s.hub.Store.(metadataProvider); ok {
		meta := mp.Metadata()
		resp["storage_type"] = string(meta.StorageType)
		resp["format_version"] = meta.FormatVersion
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// handleEventsTail upgrades to a WebSocket and streams every event
// container committed to the store from this point on, as JSON text
// frames, until the client disconnects or the server shuts down.
func (s *Server) handleEventsTail(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	streamID := uuid.New().String()
	ctx, cancel := context.WithCancel(r.Context())

	s.mu.Lock()
	s.streams[streamID] = cancel
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.streams, streamID)
		s.mu.Unlock()
		cancel()
	}()

	subID, events := s.hub.Subscribe()
	defer s.hub.Unsubscribe(subID)

	s.logger.Info(ctx, "event tail opened", logging.String("stream_id", streamID))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case c, ok := <-events:
				if !ok {
					return nil
				}
				payload, err := json.Marshal(tailFrame{
					Type:       c.Type,
					Identifier: c.Identifier.SerializeToString(),
					Fields:     c.Fields,
				})
				if err != nil {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return err
				}
			}
		}
	})
	g.Go(func() error {
		// Drain and discard client frames; a read error (including
		// close) ends the tail.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return err
			}
		}
	})
	g.Go(func() error {
		// Unblock the read loop above when the writer side exits or the
		// server is shutting down; ReadMessage has no context of its own.
		<-gctx.Done()
		conn.Close()
		return nil
	})

	_ = g.Wait()
	s.logger.Info(ctx, "event tail closed", logging.String("stream_id", streamID))
}
