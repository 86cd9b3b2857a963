// Package preview serves a built site locally. It is a development aid, not a
// deployment target.
package preview

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router chi.Router
	log    *logrus.Logger
	dir    string
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithFields(logrus.Fields{
			"requestId": middleware.GetReqID(r.Context()),
		}).Infof("%s %s (%s)", r.Method, r.URL.EscapedPath(), r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Errorf("panic: %v", rec)
				http.Error(w, fmt.Sprintf("panic: %v", rec), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// New returns a handler serving the site directory.
func New(log *logrus.Logger, dir string) *Server {
	router := chi.NewRouter()
	server := &Server{
		router: router,
		log:    log,
		dir:    dir,
	}
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(server.logMiddleware)
	router.Use(server.recoverMiddleware)
	router.Handle("/*", http.FileServer(http.Dir(dir)))
	return server
}
