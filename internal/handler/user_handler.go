package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/validation"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// RecordSignIn はログインを記録し、作成または更新後のユーザーを返す。
	RecordSignIn(ctx context.Context, signIn model.SignIn) (*model.User, error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
// ログイン自体は認証ゲートウェイが行い、結果のみをこのハンドラーに送る。
type UserHandler struct {
	service   UserServiceInterface
	validator *validation.Validator
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, v *validation.Validator) *UserHandler {
	return &UserHandler{service: service, validator: v}
}

// SignIn はログインを記録する。
// POST /api/users/sign-in
func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSONBody(w, r, &req, maxBodySize); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	u, err := h.service.RecordSignIn(r.Context(), model.SignIn{
		OpenID:      req.OpenID,
		Name:        req.Name,
		Email:       req.Email,
		LoginMethod: req.LoginMethod,
		Role:        req.Role,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}
