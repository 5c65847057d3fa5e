// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/repository"
)

// Service はユーザー管理のサービス層。
// ログイン記録と、オーナーへの管理者権限の付与を行う。
type Service struct {
	userRepo    repository.UserRepository
	ownerOpenID string
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// ownerOpenIDが空の場合、自動的な管理者権限の付与は行わない。
func NewService(userRepo repository.UserRepository, ownerOpenID string) *Service {
	return &Service{
		userRepo:    userRepo,
		ownerOpenID: ownerOpenID,
		now:         time.Now,
	}
}

// RecordSignIn はログインを記録する。
// 初回は作成し、2回目以降は空でないフィールドとlast_signed_inを更新する。
// open_idがオーナーと一致し、権限の指定がない場合は管理者にする。
func (s *Service) RecordSignIn(ctx context.Context, signIn model.SignIn) (*model.User, error) {
	signIn.OpenID = strings.TrimSpace(signIn.OpenID)
	if signIn.OpenID == "" {
		return nil, model.NewFieldValidationError([]string{"openId"})
	}
	if signIn.Role != "" && !signIn.Role.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("role %q", signIn.Role))
	}
	if signIn.Role == "" && s.ownerOpenID != "" && signIn.OpenID == s.ownerOpenID {
		signIn.Role = model.RoleAdmin
	}
	signIn.At = s.now()

	u, err := s.userRepo.Upsert(ctx, signIn)
	if err != nil {
		return nil, fmt.Errorf("ログインの記録に失敗しました: %w", err)
	}

	slog.Info("ログインを記録しました",
		slog.Int64("user_id", u.ID),
		slog.String("role", string(u.Role)),
	)
	return u, nil
}

// Get はopen_idでユーザーを取得する。
func (s *Service) Get(ctx context.Context, openID string) (*model.User, error) {
	u, err := s.userRepo.FindByOpenID(ctx, openID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}
