// Package middlewarectx содержит HTTP middleware движка доступности:
// проверку JWT токена с извлечением идентификатора артиста в контекст
// запроса и ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/availability-engine/internal/http/response"
	"github.com/magabrotheeeer/availability-engine/internal/lib/jwt"
	"github.com/magabrotheeeer/availability-engine/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// Artist — ключ для идентификатора артиста в контексте.
const Artist Key = "artist_id"

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке
// Authorization. Токены выпускает внешний сервис аутентификации; здесь токен
// только парсится, и Subject кладётся в контекст как идентификатор артиста.
func JWTMiddleware(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := maker.ParseToken(token)
			if err != nil {
				log.Error("invalid token", sl.Err(err))
				w.WriteHeader(http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), Artist, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ArtistID извлекает идентификатор артиста из контекста запроса.
func ArtistID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(Artist).(string)
	return id, ok && id != ""
}
