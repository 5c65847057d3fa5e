package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/optimaflow/internal/middleware"
	"github.com/hitoshi/optimaflow/internal/model"
)

// リクエストボディの最大サイズ
const (
	maxBodySize       = 1 << 20 // 1MB
	maxImportBodySize = 8 << 20 // 8MB。リード一括取り込み用
)

// successResponse は削除などの結果レスポンス。
type successResponse struct {
	Success bool `json:"success"`
}

// idResponse は作成したレコードのIDを返すレスポンス。
type idResponse struct {
	ID int64 `json:"id"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.RequestIDFromContext(r.Context())

	// 生成処理の失敗は原因をログにのみ記録する
	var upErr *model.UpstreamGenerationError
	if errors.As(err, &upErr) {
		slog.Warn("upstream generation failed",
			slog.String("operation", upErr.Operation),
			slog.String("error", err.Error()),
			slog.String("request_id", requestID),
		)
		writeAPIErrorResponse(w, http.StatusBadGateway, upErr.APIError())
		return
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		if statusCode >= http.StatusInternalServerError {
			slog.Error("service error",
				slog.String("code", apiErr.Code),
				slog.String("error", err.Error()),
				slog.String("request_id", requestID),
			)
		}
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("request_id", requestID),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeOpportunityNotFound, model.ErrCodeActivityNotFound,
		model.ErrCodeDealershipNotFound, model.ErrCodeExternalDealershipNotFound,
		model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeUpstreamGeneration:
		return http.StatusBadGateway
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSONBody はリクエストボディをデコードする。失敗した場合はINVALID_REQUESTを返す。
// 空のボディは空のオブジェクトとして扱う。
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.NewInvalidRequestError()
	}
	return nil
}

// parseIDParam はURLパラメータ "id" を正の整数として取得する。
func parseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("id")
	}
	return id, nil
}

// parseUserIDQuery はクエリパラメータ "userId" を正の整数として取得する。
func parseUserIDQuery(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("userId")
	}
	return id, nil
}

// parseIntQuery はクエリパラメータを整数として取得する。未指定の場合はdefaultValueを返す。
func parseIntQuery(r *http.Request, name string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError(name)
	}
	return v, nil
}
