// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"strings"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, not_found, store, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeStoreUnavailable           = "STORE_UNAVAILABLE"
	ErrCodeValidation                 = "VALIDATION_ERROR"
	ErrCodeInvalidRequest             = "INVALID_REQUEST"
	ErrCodeOpportunityNotFound        = "OPPORTUNITY_NOT_FOUND"
	ErrCodeActivityNotFound           = "ACTIVITY_NOT_FOUND"
	ErrCodeDealershipNotFound         = "DEALERSHIP_NOT_FOUND"
	ErrCodeExternalDealershipNotFound = "EXTERNAL_DEALERSHIP_NOT_FOUND"
	ErrCodeUserNotFound               = "USER_NOT_FOUND"
	ErrCodeUpstreamGeneration         = "UPSTREAM_GENERATION_FAILED"
	ErrCodeRateLimited                = "RATE_LIMITED"
	ErrCodeInternal                   = "INTERNAL_ERROR"
)

// ErrStoreUnavailable はデータベースが未設定または到達不能であることを表す。
// 読み取り系は空の結果に縮退し、書き込み系はこのエラーを返す。
var ErrStoreUnavailable = &APIError{
	Code:     ErrCodeStoreUnavailable,
	Message:  "La base de datos no está disponible.",
	Category: "store",
	Action:   "Inténtalo de nuevo más tarde o contacta con el administrador.",
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("Datos no válidos: %s", reason),
		Category: "validation",
		Action:   "Revisa los campos obligatorios y los valores permitidos.",
	}
}

// NewFieldValidationError は複数フィールドの検証エラーをまとめて生成する。
func NewFieldValidationError(fields []string) *APIError {
	return NewValidationError(strings.Join(fields, ", "))
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "No se pudo interpretar el cuerpo de la petición.",
		Category: "validation",
		Action:   "Envía la petición en formato JSON válido.",
	}
}

// NewOpportunityNotFoundError は商談未検出エラーを生成する。
func NewOpportunityNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeOpportunityNotFound,
		Message:  fmt.Sprintf("No se encontró la oportunidad: %d", id),
		Category: "not_found",
		Action:   "Comprueba el identificador de la oportunidad.",
	}
}

// NewActivityNotFoundError は活動履歴未検出エラーを生成する。
func NewActivityNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeActivityNotFound,
		Message:  fmt.Sprintf("No se encontró la actividad: %d", id),
		Category: "not_found",
		Action:   "Comprueba el identificador de la actividad.",
	}
}

// NewDealershipNotFoundError は販売店未検出エラーを生成する。
func NewDealershipNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeDealershipNotFound,
		Message:  fmt.Sprintf("No se encontró el concesionario: %d", id),
		Category: "not_found",
		Action:   "Comprueba el identificador del concesionario.",
	}
}

// NewExternalDealershipNotFoundError は外部カタログの販売店未検出エラーを生成する。
func NewExternalDealershipNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeExternalDealershipNotFound,
		Message:  fmt.Sprintf("No se encontró el concesionario externo: %d", id),
		Category: "not_found",
		Action:   "Actualiza el listado e inténtalo de nuevo.",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "No se encontró el usuario.",
		Category: "not_found",
		Action:   "Vuelve a iniciar sesión.",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Demasiadas peticiones.",
		Category: "system",
		Action:   "Espera unos segundos y vuelve a intentarlo.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Se produjo un error interno.",
		Category: "system",
		Action:   "Inténtalo de nuevo más tarde.",
	}
}

// UpstreamGenerationError はLLM呼び出しの失敗（通信、タイムアウト、スキーマ不一致）を表す。
// Causeには原因のエラーを保持し、errors.Unwrapで取り出せる。
type UpstreamGenerationError struct {
	Operation string
	Cause     error
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamGenerationError) Error() string {
	return fmt.Sprintf("%s: upstream generation failed: %v", e.Operation, e.Cause)
}

// Unwrap は原因のエラーを返す。
func (e *UpstreamGenerationError) Unwrap() error {
	return e.Cause
}

// APIError はハンドラー向けの統一エラーフォーマットに変換する。
// 原因の詳細はログのみに記録し、レスポンスには含めない。
func (e *UpstreamGenerationError) APIError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamGeneration,
		Message:  "El servicio de análisis no devolvió una respuesta válida.",
		Category: "upstream",
		Action:   "Inténtalo de nuevo en unos minutos.",
	}
}

// IsStoreUnavailable はエラーがStoreUnavailableかどうかを判定する。
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
