// internal/adapters/in/http/middleware/recover.go
package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				// panic の真因をログに残す
				zap.S().Errorf("[recover] PANIC reqId=%s path=%s: %v\n%s",
					RequestIDFrom(r.Context()), r.URL.Path, rec, string(debug.Stack()))

				// ここで必ずレスポンスを返す
				// ※ CORS は外側で付ける（router のチェーン順が重要）
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal","message":"internal server error"}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
