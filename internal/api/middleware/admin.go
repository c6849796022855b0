// admin.go — авторизация административных операций по идентификатору запрашивающего.
// Идентификатор передаётся в заголовке X-Requester-ID и сверяется со списком CM_ADMINS.
// Аутентификация не выполняется: заголовок выставляет доверенный фронтенд (бот).
package middleware

import (
	"context"
	"net/http"
	"strconv"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
)

// RequesterHeader — заголовок с идентификатором запрашивающего.
const RequesterHeader = "X-Requester-ID"

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyRequester — идентификатор запрашивающего в контексте запроса.
const ContextKeyRequester contextKey = "requester_id"

// RequesterID разбирает заголовок X-Requester-ID.
// Возвращает (0, false), если заголовок не задан или некорректен.
func RequesterID(r *http.Request) (int64, bool) {
	raw := r.Header.Get(RequesterHeader)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// RequesterFromContext возвращает идентификатор, сохранённый RequireAdmin.
func RequesterFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ContextKeyRequester).(int64)
	return id, ok
}

// RequireAdmin возвращает middleware, пропускающий только администраторов.
// isAdmin — проверка идентификатора по списку администраторов.
func RequireAdmin(isAdmin func(id int64) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := RequesterID(r)
			if !ok {
				apierrors.Unauthorized(w, "Отсутствует или некорректен заголовок "+RequesterHeader)
				return
			}
			if !isAdmin(id) {
				apierrors.Forbidden(w, "Недостаточно прав: операция доступна только администраторам")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyRequester, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
