package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/optimaflow/internal/metrics"
	"github.com/hitoshi/optimaflow/internal/middleware"
	"github.com/hitoshi/optimaflow/internal/validation"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	TrustProxy        bool // trueの場合、X-Forwarded-For / X-Real-IPからクライアントIPを取得する
	RateLimiter       *middleware.RateLimiter
	Metrics           metrics.MetricsCollector
	MetricsHandler    http.Handler
	HealthChecker     HealthChecker
	Validator         *validation.Validator
	Logger            *slog.Logger

	// ドメインサービス
	OpportunityService OpportunityServiceInterface
	DealershipService  DealershipServiceInterface
	AnalyzerService    AnalyzerServiceInterface
	LeadImporter       LeadImporter
	UserService        UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → (RealIP) → RequestID → Logging → Metrics → SecurityHeaders → CORS → RateLimit(General)
//
// 生成API（/api/company/*）には生成専用のレート制限を追加する。
// /health と /metrics はレート制限の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	v := deps.Validator
	if v == nil {
		v = validation.New()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	if deps.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(metrics.HTTPMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	healthHandler := NewHealthHandler(deps.HealthChecker)
	oppHandler := NewOpportunityHandler(deps.OpportunityService, v)
	dealershipHandler := NewDealershipHandler(deps.DealershipService, v)
	companyHandler := NewCompanyHandler(deps.AnalyzerService, v)
	leadHandler := NewLeadHandler(deps.LeadImporter, v)
	userHandler := NewUserHandler(deps.UserService, v)

	// --- レート制限の対象外 ---
	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- API ---
	r.Group(func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
		}

		// 商談
		r.Route("/api/opportunities", func(r chi.Router) {
			r.Get("/", oppHandler.List)
			r.Post("/", oppHandler.Create)
			r.Get("/metrics", oppHandler.Metrics)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", oppHandler.Get)
				r.Patch("/", oppHandler.Update)
				r.Delete("/", oppHandler.Delete)

				// 活動履歴
				r.Get("/activities", oppHandler.ListActivities)
				r.Post("/activities", oppHandler.CreateActivity)
			})
		})
		r.Delete("/api/activities/{id}", oppHandler.DeleteActivity)

		// 販売店
		r.Route("/api/dealerships", func(r chi.Router) {
			r.Get("/", dealershipHandler.List)
			r.Post("/", dealershipHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", dealershipHandler.Get)
				r.Patch("/", dealershipHandler.Update)
				r.Delete("/", dealershipHandler.Delete)
			})
		})

		// 外部カタログ
		r.Route("/api/external-dealerships", func(r chi.Router) {
			r.Get("/", dealershipHandler.ListExternal)
			r.Get("/stats", dealershipHandler.ExternalStats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", dealershipHandler.GetExternal)
				r.Post("/import", dealershipHandler.Import)
			})
		})

		// 企業分析（生成API）
		r.Route("/api/company", func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.Use(deps.RateLimiter.GenerationMiddleware())
			}
			r.Post("/analyze", companyHandler.Analyze)
			r.Post("/strategy", companyHandler.GenerateStrategy)
		})

		// リード取り込み
		r.Post("/api/leads/import", leadHandler.Import)

		// ユーザー
		r.Post("/api/users/sign-in", userHandler.SignIn)
	})

	return r
}
