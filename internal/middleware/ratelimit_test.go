package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/optimaflow/internal/model"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// requestFrom は指定したクライアントIPからのリクエストを生成する。
func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.RemoteAddr = ip + ":54321"
	return req
}

func testConfig(generalBurst, generationBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		GenerationRate:  1,
		GenerationBurst: generationBurst,
		CleanupInterval: 1 * time.Minute,
	}
}

// --- API全般 ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(testConfig(5, 1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, requestFrom("10.0.0.1"))
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := NewRateLimiter(testConfig(2, 1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.2"))
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.2"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("Retry-After = %q, want positive integer", resp.Header.Get("Retry-After"))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != model.ErrCodeRateLimited {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeRateLimited)
	}
}

func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(testConfig(1, 1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.3"))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.3"))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("same client: status = %d, want 429", w.Result().StatusCode)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.4"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", w.Result().StatusCode)
	}

	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestRateLimitMiddleware_PortDoesNotSplitClient(t *testing.T) {
	rl := NewRateLimiter(testConfig(1, 1))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	first := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	first.RemoteAddr = "10.0.0.5:1000"
	handler.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	second.RemoteAddr = "10.0.0.5:2000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, second)

	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Result().StatusCode)
	}
}

// --- 生成API ---

func TestGenerationRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	rl := NewRateLimiter(testConfig(10, 1))
	defer rl.Stop()

	general := rl.GeneralMiddleware()
	generation := rl.GenerationMiddleware()
	handler := general(generation(okHandler()))
	plain := general(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.6"))
	if w.Result().StatusCode != http.StatusOK {
		t.Fatalf("first generation: status = %d, want 200", w.Result().StatusCode)
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, requestFrom("10.0.0.6"))
	if w.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("second generation: status = %d, want 429", w.Result().StatusCode)
	}

	// 生成APIの制限に達しても他のAPIは利用できる
	w = httptest.NewRecorder()
	plain.ServeHTTP(w, requestFrom("10.0.0.6"))
	if w.Result().StatusCode != http.StatusOK {
		t.Errorf("general request: status = %d, want 200", w.Result().StatusCode)
	}
	if got := rl.GenerationLimiterCount(); got != 1 {
		t.Errorf("GenerationLimiterCount = %d, want 1", got)
	}
}

// --- クリーンアップ ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testConfig(5, 5)
	cfg.CleanupInterval = 50 * time.Millisecond // テスト用に短く

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), requestFrom("10.0.0.7"))

	if rl.GeneralLimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// TTLはCleanupIntervalの2倍（100ms）
	time.Sleep(250 * time.Millisecond)

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(testConfig(1, 1))
	rl.Stop()
	rl.Stop()
}

// --- 設定 ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 { // 120/60
		t.Errorf("GeneralRate = %f, want 2.0", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.GenerationBurst != 10 {
		t.Errorf("GenerationBurst = %d, want 10", cfg.GenerationBurst)
	}
	if cfg.GenerationRate >= cfg.GeneralRate {
		t.Errorf("GenerationRate = %f, want stricter than general", cfg.GenerationRate)
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(60, 6)

	if cfg.GeneralRate != 1.0 {
		t.Errorf("GeneralRate = %f, want 1.0", cfg.GeneralRate)
	}
	if cfg.GenerationRate != 0.1 {
		t.Errorf("GenerationRate = %f, want 0.1", cfg.GenerationRate)
	}
	if cfg.GenerationBurst != 6 {
		t.Errorf("GenerationBurst = %d, want 6", cfg.GenerationBurst)
	}
}
