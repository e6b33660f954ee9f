package repository

import (
	"bookstore/internal/domain/model"
	"context"
)

// token_versionの照合用（ユーザー管理はこのサービスの外）
type UserRepository interface {
	// 見つからなければ nil, nil
	FindByID(ctx context.Context, userID int64) (*model.User, error)
}
