package middleware

import (
	"net/http"

	"bookstore/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionの一致するか確認。
// 無効化されたユーザーも401
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return tokenVersionGuard(userRepo, false)
}

// OptionalAuthJWTの後ろ用。ゲスト（user_idなし）はそのまま通す
func OptionalTokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return tokenVersionGuard(userRepo, true)
}

func tokenVersionGuard(userRepo repository.UserRepository, allowGuest bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawUserID := c.Get(CtxUserIDKey)
			if rawUserID == nil && allowGuest {
				return next(c)
			}
			userID, ok := rawUserID.(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil || !user.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//token_version が一致しなければ強制ログアウト扱い（401）
			if user.TokenVersion != tv {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//roleはDB側を正とする
			c.Set(CtxUserRoleKey, string(user.Role))
			return next(c)
		}
	}
}
