// Package logger はslogによるJSON構造化ログの初期化を提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ログファイルのローテーション設定
const (
	maxFileSizeMB = 100
	maxBackups    = 10
)

// Options はログ出力の設定。
type Options struct {
	Level         string // debug, info, warn, error
	File          string // 空の場合は標準出力のみ
	RetentionDays int    // ローテーション済みファイルの保持日数
}

// Setup はJSON構造化ログ出力のslog.Loggerを生成して返す。
// writerが指定された場合はそのwriterに出力する。
func Setup(w io.Writer) *slog.Logger {
	return SetupWithLevel(w, slog.LevelInfo)
}

// SetupWithLevel は指定レベル以上を出力するJSONロガーを生成する。
func SetupWithLevel(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// SetupDefault はJSON構造化ログ出力をグローバルロガーとして設定する。
// 本番ではos.Stdoutを渡すことを想定している。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w))
}

// Init はOptionsに従ってグローバルロガーを設定し、生成したロガーを返す。
// ファイル出力を有効にした場合は標準出力とファイルの両方に書き込む。
// 返されたio.Closerは終了時に呼び出す。
func Init(stdout io.Writer, opts Options) (*slog.Logger, io.Closer) {
	if stdout == nil {
		stdout = os.Stdout
	}

	w := stdout
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		file := NewFileWriter(opts.File, opts.RetentionDays)
		w = io.MultiWriter(stdout, file)
		closer = file
	}

	l := SetupWithLevel(w, ParseLevel(opts.Level))
	slog.SetDefault(l)
	return l, closer
}

// NewFileWriter はサイズと日数でローテーションするファイルwriterを生成する。
func NewFileWriter(path string, retentionDays int) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxFileSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     retentionDays,
		Compress:   true,
	}
}

// ParseLevel はログレベル文字列をslog.Levelに変換する。不明な値はInfo。
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
