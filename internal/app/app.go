// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/optimaflow/internal/analyzer"
	"github.com/hitoshi/optimaflow/internal/config"
	"github.com/hitoshi/optimaflow/internal/database"
	"github.com/hitoshi/optimaflow/internal/dealership"
	"github.com/hitoshi/optimaflow/internal/handler"
	"github.com/hitoshi/optimaflow/internal/leadimport"
	"github.com/hitoshi/optimaflow/internal/llm"
	"github.com/hitoshi/optimaflow/internal/logger"
	"github.com/hitoshi/optimaflow/internal/metrics"
	"github.com/hitoshi/optimaflow/internal/middleware"
	"github.com/hitoshi/optimaflow/internal/model"
	"github.com/hitoshi/optimaflow/internal/opportunity"
	"github.com/hitoshi/optimaflow/internal/repository"
	"github.com/hitoshi/optimaflow/internal/security"
	"github.com/hitoshi/optimaflow/internal/user"
	"github.com/hitoshi/optimaflow/internal/validation"
)

// サーバーのタイムアウト
const (
	serverReadTimeout  = 15 * time.Second
	serverWriteTimeout = 15 * time.Second
	serverIdleTimeout  = 60 * time.Second
	shutdownTimeout    = 30 * time.Second
	dbPingTimeout      = 5 * time.Second
	// 生成APIの応答を書き込むための余裕
	writeTimeoutMargin = 5 * time.Second
)

// defaultImportUserID はimport-leadsでユーザーIDを省略した場合の取り込み先（オーナー）。
const defaultImportUserID int64 = 1

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
// 返されたio.Closerはログファイルを閉じるため終了時に呼び出す。
func Init(w io.Writer) (*config.Config, io.Closer, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定に従ってログを再構成する
	_, closer := logger.Init(w, logger.Options{
		Level:         cfg.LogLevel,
		File:          cfg.LogFile,
		RetentionDays: cfg.LogRetentionDays,
	})

	return cfg, closer, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, closer, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer closer.Close()

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.Bool("database", cfg.HasDatabase()),
		slog.Bool("llm", cfg.HasLLM()),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandImportLeads:
		return runImportLeads(cfg, w, args[1:])
	default:
		return runServe(cfg)
	}
}

// openDatabase はDATABASE_URLが設定されている場合に接続を開き、疎通を確認する。
// 未設定の場合はnilを返し、リポジトリは縮退モードで動作する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	if !cfg.HasDatabase() {
		return nil, nil
	}

	db, err := database.Open(cfg.DatabaseURL, database.PoolOptions{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	if err := database.Ping(context.Background(), db, dbPingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)
	return db, nil
}

// services はHTTPとCLIで共有するドメインサービス群。
type services struct {
	opportunity *opportunity.Service
	dealership  *dealership.Service
	analyzer    *analyzer.Service
	leads       *leadimport.Importer
	user        *user.Service
}

// newServices はリポジトリとドメインサービスを構築する。dbはnilでもよい。
func newServices(cfg *config.Config, db *sql.DB, collector metrics.MetricsCollector, v *validation.Validator) *services {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	oppRepo := repository.NewPostgresOpportunityRepo(db)
	activityRepo := repository.NewPostgresActivityRepo(db)
	dealershipRepo := repository.NewPostgresDealershipRepo(db)
	externalRepo := repository.NewPostgresExternalDealershipRepo(db)

	// 2. セキュリティサービスの初期化
	sanitizer := security.NewTextSanitizer()

	// 3. 生成APIクライアントの初期化
	llmClient := llm.NewClient(&http.Client{}, slog.Default(), llm.Options{
		Endpoint: cfg.LLMAPIURL,
		APIKey:   cfg.LLMAPIKey,
		Model:    cfg.LLMModel,
		Timeout:  cfg.LLMTimeout,
	})

	// 4. ドメインサービスの初期化
	return &services{
		opportunity: opportunity.NewService(oppRepo, activityRepo, sanitizer),
		dealership:  dealership.NewService(dealershipRepo, externalRepo, sanitizer, collector),
		analyzer:    analyzer.NewService(llmClient, collector, slog.Default()),
		leads:       leadimport.NewImporter(oppRepo, v, sanitizer, collector, slog.Default()),
		user:        user.NewService(userRepo, cfg.OwnerOpenID),
	}
}

// newRouter は全依存関係をワイヤリングしたHTTPハンドラーを返す。
// 返されたstop関数はレートリミッターのバックグラウンド処理を停止する。
func newRouter(cfg *config.Config, db *sql.DB) (http.Handler, func()) {
	// メトリクス
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	v := validation.New()
	svcs := newServices(cfg, db, collector, v)

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitGeneration),
	)

	deps := &handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		TrustProxy:        cfg.TrustProxy,
		RateLimiter:       rateLimiter,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
		Validator:         v,
		Logger:            slog.Default(),

		OpportunityService: svcs.opportunity,
		DealershipService:  svcs.dealership,
		AnalyzerService:    svcs.analyzer,
		LeadImporter:       svcs.leads,
		UserService:        svcs.user,
	}
	// nilの*sql.DBをインターフェースに入れるとnil判定できないため、設定時のみ渡す
	if db != nil {
		deps.HealthChecker = db
	}

	return handler.NewRouter(deps), rateLimiter.Stop
}

// serverWriteTimeoutFor は生成APIのタイムアウトを上回る書き込みタイムアウトを返す。
func serverWriteTimeoutFor(llmTimeout time.Duration) time.Duration {
	if d := llmTimeout + writeTimeoutMargin; d > serverWriteTimeout {
		return d
	}
	return serverWriteTimeout
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続（未設定の場合は縮退モード）
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	} else {
		slog.Warn("DATABASE_URL is not set; running without database (reads return empty results, writes fail)")
	}
	if !cfg.HasLLM() {
		slog.Warn("LLM_API_KEY is not set; company analysis endpoints will fail")
	}

	// 2. ルーターの構築
	router, stopRateLimiter := newRouter(cfg, db)
	defer stopRateLimiter()

	// 3. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  serverReadTimeout,
		WriteTimeout: serverWriteTimeoutFor(cfg.LLMTimeout),
		IdleTimeout:  serverIdleTimeout,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
			slog.Duration("write_timeout", server.WriteTimeout),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server listen error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if !cfg.HasDatabase() {
		return errors.New("migrate requires DATABASE_URL")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
	)
	return nil
}

// importLeadsFile はimport-leadsが受け付けるファイル形式。
// リードの配列、または {"leads": [...]} のどちらでもよい。
type importLeadsFile struct {
	Leads []model.Lead `json:"leads"`
}

// readLeadsFile はJSONファイルからリード一覧を読み込む。
func readLeadsFile(path string) ([]model.Lead, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var leads []model.Lead
	if err := json.Unmarshal(data, &leads); err == nil {
		return leads, nil
	}

	var wrapped importLeadsFile
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return wrapped.Leads, nil
}

// parseImportArgs はimport-leadsの引数 <file.json> [userId] を解析する。
func parseImportArgs(args []string) (string, int64, error) {
	if len(args) == 0 || args[0] == "" {
		return "", 0, errors.New("usage: import-leads <file.json> [userId]")
	}

	userID := defaultImportUserID
	if len(args) > 1 {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return "", 0, fmt.Errorf("invalid userId: %q", args[1])
		}
		userID = id
	}
	return args[0], userID, nil
}

// runImportLeads はJSONファイルのリードを商談として取り込み、結果をwに出力する。
func runImportLeads(cfg *config.Config, w io.Writer, args []string) error {
	path, userID, err := parseImportArgs(args)
	if err != nil {
		return err
	}
	if !cfg.HasDatabase() {
		return errors.New("import-leads requires DATABASE_URL")
	}

	leads, err := readLeadsFile(path)
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	svcs := newServices(cfg, db, nil, validation.New())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := svcs.leads.Import(ctx, userID, leads)
	if err != nil {
		return fmt.Errorf("lead import failed: %w", err)
	}

	if w == nil {
		w = os.Stdout
	}
	return json.NewEncoder(w).Encode(result)
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
