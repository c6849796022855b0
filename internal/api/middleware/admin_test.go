package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// isAdmin — список администраторов для тестов: только 42.
func isAdmin(id int64) bool { return id == 42 }

// TestRequireAdmin проверяет коды ответа для разных значений заголовка.
func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{"администратор", "42", http.StatusOK, ""},
		{"не администратор", "7", http.StatusForbidden, "FORBIDDEN"},
		{"без заголовка", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"нечисловой заголовок", "admin", http.StatusUnauthorized, "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			handler := RequireAdmin(isAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := RequesterFromContext(r.Context())
				if !ok {
					t.Error("идентификатор не найден в контексте")
				}
				gotID = id
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/media", nil)
			if tt.header != "" {
				req.Header.Set(RequesterHeader, tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Fatalf("ожидался статус %d, получен %d", tt.wantCode, rr.Code)
			}
			if tt.wantErr == "" {
				if gotID != 42 {
					t.Errorf("ожидался requester 42, получен %d", gotID)
				}
				return
			}

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("некорректное тело ответа: %v", err)
			}
			if body.Error.Code != tt.wantErr {
				t.Errorf("ожидался код %s, получен %s", tt.wantErr, body.Error.Code)
			}
		})
	}
}

func TestRequesterID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := RequesterID(req); ok {
		t.Error("без заголовка ожидался ok=false")
	}

	req.Header.Set(RequesterHeader, "-100123")
	id, ok := RequesterID(req)
	if !ok || id != -100123 {
		t.Errorf("RequesterID() = (%d, %v), ожидалось (-100123, true)", id, ok)
	}
}
