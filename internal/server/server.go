package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/credlens/credlens/internal/auth"
	"github.com/credlens/credlens/internal/config"
	"github.com/credlens/credlens/internal/core/claims"
	"github.com/credlens/credlens/internal/core/factcheck"
	"github.com/credlens/credlens/internal/core/sanitize"
	"github.com/credlens/credlens/internal/core/vision"
	"github.com/credlens/credlens/internal/llm"
	"github.com/credlens/credlens/internal/quota"
)

type factChecker interface {
	Check(ctx context.Context, req factcheck.Request) (*factcheck.Result, error)
}

type imageReader interface {
	Extract(ctx context.Context, images []string, extractClaims bool) (*vision.Result, error)
}

type claimExtractor interface {
	Extract(ctx context.Context, text string, imageCount int) []string
}

type quotaGate interface {
	Allow(ctx context.Context, uid, plan string, now time.Time) error
	UpgradeURL() string
}

type Server struct {
	cfg       *config.Config
	checker   factChecker
	ocr       imageReader
	extractor claimExtractor
	gate      quotaGate
}

// NewServer wires the whole service from config: LLM clients, Redis quota
// store, pipeline. Fatal on misconfiguration; there is no degraded mode.
func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.ApplyEnv()

	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("JWT secret is not configured (set JWT_SECRET or [auth] jwt_secret)")
	}

	textClient, groundedClient, visionClient, err := llm.NewClient(context.Background(), cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	// A separate vision model, when configured, gets its own client.
	if cfg.LLM.VisionModel != "" && cfg.LLM.VisionModel != cfg.LLM.Model {
		visionCfg := cfg.LLM
		visionCfg.Model = cfg.LLM.VisionModel
		_, _, vc, err := llm.NewClient(context.Background(), visionCfg)
		if err != nil {
			log.Fatalf("Failed to initialize vision LLM client: %v", err)
		}
		visionClient = vc
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Invalid redis url: %v", err)
	}
	rdb := redis.NewClient(redisOpts)

	checker := factcheck.New(groundedClient, factcheck.Options{
		Variant:         factcheck.ParseVariant(cfg.Pipeline.PromptVariant),
		MaxOutputTokens: cfg.Pipeline.MaxOutputTokens,
		MaxSources:      cfg.Pipeline.MaxSources,
	})
	ocr := vision.NewReader(visionClient, textClient)
	extractor := claims.NewExtractor(textClient)
	gate := quota.NewGate(quota.NewRedisStore(rdb), cfg.Quota.FreeDailyLimit, cfg.Quota.UpgradeURL)

	return newServer(cfg, checker, ocr, extractor, gate)
}

func newServer(cfg *config.Config, checker factChecker, ocr imageReader, extractor claimExtractor, gate quotaGate) *Server {
	return &Server{cfg: cfg, checker: checker, ocr: ocr, extractor: extractor, gate: gate}
}

func (s *Server) Port() string {
	return s.cfg.Server.Port
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.Server.AllowOrigins) > 0 {
		corsCfg.AllowOrigins = s.cfg.Server.AllowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.Use(auth.Middleware([]byte(s.cfg.Auth.JWTSecret)), s.quotaMiddleware())
	{
		v1.POST("/factcheck", s.FactCheck)
		v1.POST("/extract-claims", s.ExtractClaims)
		v1.POST("/extract-image-text", s.ExtractImageText)
	}

	return r
}

// quotaMiddleware consumes one unit of the caller's daily allowance before
// any model call happens. A counter-store outage fails open: availability
// over strict metering.
func (s *Server) quotaMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}
		err := s.gate.Allow(c.Request.Context(), id.UID, id.Plan, time.Now())
		if errors.Is(err, quota.ErrExceeded) {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{
				"error":      "quota_exceeded",
				"upgradeUrl": s.gate.UpgradeURL(),
			})
			return
		}
		if err != nil {
			log.Printf("quota check failed for %s, allowing request: %v", id.UID, err)
		}
		c.Next()
	}
}

type factCheckRequest struct {
	Text     string   `json:"text"`
	Images   []string `json:"images"`
	PostDate string   `json:"postDate"`
	Claims   string   `json:"claims"`
}

type factCheckResponse struct {
	factcheck.Result
	RequestID string `json:"requestId"`
}

func (s *Server) FactCheck(c *gin.Context) {
	var req factCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	requestID := uuid.NewString()

	result, err := s.checker.Check(c.Request.Context(), factcheck.Request{
		Text:        req.Text,
		ImageCount:  len(req.Images),
		PostDate:    req.PostDate,
		ImageClaims: req.Claims,
	})
	if err != nil {
		s.writePipelineError(c, requestID, err)
		return
	}

	c.JSON(http.StatusOK, factCheckResponse{Result: *result, RequestID: requestID})
}

type extractClaimsRequest struct {
	Text   string   `json:"text"`
	Images []string `json:"images"`
}

// ExtractClaims runs the standalone claim-extraction call. It always
// succeeds once the input binds; extraction failures surface as the
// extractor's sentinel claim, not as errors.
func (s *Server) ExtractClaims(c *gin.Context) {
	var req extractClaimsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	text, err := sanitize.Clean(req.Text)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text too short to analyze"})
		return
	}

	extracted := s.extractor.Extract(c.Request.Context(), text, len(req.Images))
	c.JSON(http.StatusOK, gin.H{"claims": extracted})
}

type imageExtractRequest struct {
	Images        []string `json:"images"`
	ExtractClaims bool     `json:"extractClaims"`
}

func (s *Server) ExtractImageText(c *gin.Context) {
	var req imageExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := s.ocr.Extract(c.Request.Context(), req.Images, req.ExtractClaims)
	if errors.Is(err, vision.ErrNoImages) || errors.Is(err, vision.ErrTooManyImages) || errors.Is(err, vision.ErrBadImage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		log.Printf("image extraction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process images"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"extractedText": res.ExtractedText,
		"claims":        res.Claims,
		"imageCount":    len(req.Images),
	})
}

// writePipelineError maps pipeline failures onto the response contract:
// input problems are 400s, provider 400s pass through, everything else is
// an internal error.
func (s *Server) writePipelineError(c *gin.Context, requestID string, err error) {
	if errors.Is(err, sanitize.ErrTooShort) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text too short to analyze"})
		return
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		log.Printf("[%s] provider error %d: %s", requestID, provErr.StatusCode, provErr.Body)
		if provErr.StatusCode == http.StatusBadRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provider rejected the request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze post"})
		return
	}

	log.Printf("[%s] fact check failed: %v", requestID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze post"})
}
