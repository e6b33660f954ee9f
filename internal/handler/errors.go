package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/internal/domain/model"
	"bookstore/internal/middleware"
	"bookstore/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// まとめて保存の途中失敗。どこまで保存済みかを返す
type FulfillmentErrorResponse struct {
	Error     string   `json:"error"`
	Step      string   `json:"step"`
	Committed []string `json:"committed"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if fe, ok := usecase.AsFulfillmentError(err); ok {
		status := http.StatusInternalServerError
		msg := "internal error"
		if he, ok := usecase.AsHTTPError(fe.Err); ok {
			status, msg = he.Status, he.Message
		}
		return c.JSON(status, FulfillmentErrorResponse{Error: msg, Step: fe.Step, Committed: fe.Committed})
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// ミドルウェアが入れた値から。未ログインならゼロ値（ゲスト）
func actorFromContext(c echo.Context) model.Actor {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return model.Actor{}
	}
	role, _ := c.Get(middleware.CtxUserRoleKey).(string)
	return model.Actor{UserID: id, Role: model.Role(role)}
}

func parseIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// page（default 1）/ limit（default 20）
func parsePaging(c echo.Context) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}

// RFC3339 か 2006-01-02。空文字は未指定
func parseDate(field string, v *string) (*time.Time, error) {
	if v == nil {
		return nil, nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+field)
	}
	return &t, nil
}
