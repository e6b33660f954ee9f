package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type HTTPError struct {
	Status  int
	Message string
	//ログ用。レスポンスには出さない
	Err error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%d: %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 400 入力の誤り
func validationError(message string) error {
	return NewHTTPError(http.StatusBadRequest, message)
}

// 404
func notFoundError(message string) error {
	return NewHTTPError(http.StatusNotFound, message)
}

// 401 未ログイン / 403 権限不足
func authorize(actorAuthenticated bool, allowed bool) error {
	if !actorAuthenticated {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !allowed {
		return NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

// 500 DBエラー。原因はログにだけ出す
func dbError(log *zap.Logger, op string, err error) error {
	log.Error("persistence failure", zap.String("op", op), zap.Error(err))
	return &HTTPError{Status: http.StatusInternalServerError, Message: "db error", Err: err}
}

// 途中の段階で止まった保存。どこまで書けたかを返す
type FulfillmentError struct {
	Step      string
	Committed []string
	Err       error
}

func (e *FulfillmentError) Error() string {
	return fmt.Sprintf("fulfillment %s step failed (committed: %v): %v", e.Step, e.Committed, e.Err)
}

func (e *FulfillmentError) Unwrap() error {
	return e.Err
}

func AsFulfillmentError(err error) (*FulfillmentError, bool) {
	var fe *FulfillmentError
	ok := errors.As(err, &fe)
	return fe, ok
}
