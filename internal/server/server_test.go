package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/catalog-module/internal/config"
)

// pingAPI — минимальный набор маршрутов: открытый и административный.
type pingAPI struct{}

func (pingAPI) Register(r chi.Router, adminMiddleware func(http.Handler) http.Handler) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.With(adminMiddleware).Get("/admin", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestNew_MiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	deny := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	srv := New(&config.Config{Port: 0}, logger, pingAPI{}, deny, mark("metrics"), mark("logging"))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("/ping: ожидался 200, получен %d", rr.Code)
	}
	if len(order) != 2 || order[0] != "metrics" || order[1] != "logging" {
		t.Errorf("порядок middleware = %v", order)
	}

	rr = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if rr.Code != http.StatusForbidden {
		t.Errorf("/admin: ожидался 403, получен %d", rr.Code)
	}
}
