// Package httpapi serves the latest friend list as JSON for a presentation layer.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/leighmacdonald/cs2-friends/internal/presence"
	"github.com/leighmacdonald/cs2-friends/internal/state"
)

const shutdownTimeout = 5 * time.Second

var errServer = errors.New("http server error")

// Reader is the read side of the state tracker.
type Reader interface {
	Get(key string) (any, bool)
}

type friendsResponse struct {
	Friends []presence.Friend `json:"friends"`
	Updated *time.Time        `json:"updated"`
	Error   string            `json:"error,omitempty"`
}

type Server struct {
	router *chi.Mux
	states Reader
	logger *slog.Logger
}

func New(states Reader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	server := &Server{router: chi.NewRouter(), states: states, logger: logger}
	server.router.Use(chimiddleware.Recoverer)
	server.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	server.router.Route("/api", func(r chi.Router) {
		r.Get("/friends", server.onFriends(false))
		r.Get("/friends/joinable", server.onFriends(true))
		r.Get("/friends/{steamID}", server.onFriend)
	})

	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until the context is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("Starting http listener", slog.String("address", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- errors.Join(err, errServer)
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Join(err, errServer)
	}

	return nil
}

func (s *Server) current() friendsResponse {
	var response friendsResponse
	if value, found := s.states.Get(state.KeyFriends); found {
		response.Friends, _ = value.([]presence.Friend)
	}

	if value, found := s.states.Get(state.KeyUpdated); found {
		if updated, ok := value.(time.Time); ok {
			response.Updated = &updated
		}
	}

	if value, found := s.states.Get(state.KeyError); found {
		response.Error, _ = value.(string)
	}

	if response.Friends == nil {
		response.Friends = []presence.Friend{}
	}

	return response
}

func (s *Server) onFriends(joinableOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response := s.current()
		if joinableOnly {
			joinable := []presence.Friend{}
			for _, friend := range response.Friends {
				if friend.JoinAvailable {
					joinable = append(joinable, friend)
				}
			}
			response.Friends = joinable
		}

		s.writeJSON(w, http.StatusOK, response)
	}
}

func (s *Server) onFriend(w http.ResponseWriter, r *http.Request) {
	steamID := chi.URLParam(r, "steamID")
	for _, friend := range s.current().Friends {
		if friend.SteamID == steamID {
			s.writeJSON(w, http.StatusOK, friend)

			return
		}
	}

	s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "friend not in game"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(value); err != nil {
		s.logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}
