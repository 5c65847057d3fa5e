// Package llm はOpenAI互換のチャット補完APIクライアントを提供する。
// レスポンスはjson_schema形式のresponse_formatで構造化出力を要求する。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint はチャット補完APIの既定エンドポイント。
	DefaultEndpoint = "https://api.openai.com/v1/chat/completions"
	// DefaultModel は既定のモデル名。
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout は1回の呼び出しの既定タイムアウト。
	DefaultTimeout = 60 * time.Second
	// maxResponseSize はレスポンスボディの最大サイズ（4MB）。
	maxResponseSize = 4 * 1024 * 1024
)

// ErrNotConfigured はAPIキーが設定されていないことを表す。
var ErrNotConfigured = errors.New("LLM APIキーが設定されていません")

// Message はチャットメッセージ1件。
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// JSONSchema は構造化出力のスキーマ定義。
type JSONSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

// ResponseFormat はレスポンス形式の指定。
type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// Request はチャット補完の要求内容。
type Request struct {
	Messages       []Message
	ResponseFormat *ResponseFormat
}

// Completer はチャット補完を実行し、最初の選択肢の本文を返す。
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Options はClientの設定。
type Options struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Client はチャット補完APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	endpoint   string // テスト用にエンドポイントを差し替え可能
	apiKey     string
	model      string
	timeout    time.Duration
}

// NewClient はClientの新しいインスタンスを生成する。
// Optionsの空の項目には既定値を使用する。
func NewClient(httpClient *http.Client, logger *slog.Logger, opts Options) *Client {
	c := &Client{
		httpClient: httpClient,
		logger:     logger,
		endpoint:   opts.Endpoint,
		apiKey:     opts.APIKey,
		model:      opts.Model,
		timeout:    opts.Timeout,
	}
	if c.endpoint == "" {
		c.endpoint = DefaultEndpoint
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	return c
}

type completionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete はチャット補完APIを呼び出し、最初の選択肢のcontentを返す。
// 通信エラー、タイムアウト、2xx以外のステータス、選択肢なし、
// contentが文字列でない場合はエラーを返す。
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	payload, err := json.Marshal(completionRequest{
		Model:          c.model,
		Messages:       req.Messages,
		ResponseFormat: req.ResponseFormat,
	})
	if err != nil {
		return "", fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("LLM APIの呼び出しに失敗しました",
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("LLM APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("LLM APIがエラーステータスを返しました",
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", truncate(string(body), 512)),
		)
		return "", fmt.Errorf("LLM APIがステータス %d を返しました", resp.StatusCode)
	}

	var result completionResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", errors.New("LLM APIのレスポンスに選択肢がありません")
	}

	var content string
	if err := json.Unmarshal(result.Choices[0].Message.Content, &content); err != nil {
		return "", fmt.Errorf("LLM APIのcontentが文字列ではありません: %w", err)
	}
	if content == "" {
		return "", errors.New("LLM APIのcontentが空です")
	}
	return content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
