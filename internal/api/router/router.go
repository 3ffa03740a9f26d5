package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mentorlink/backend/config"
	"mentorlink/backend/internal/api/handler"
	"mentorlink/backend/internal/api/middleware"
	"mentorlink/backend/internal/dto"
)

// Setup builds the gin engine. limiter may be nil, which disables rate limiting.
func Setup(cfg *config.Config, h *handler.Handler, verifier middleware.TokenVerifier, limiter middleware.RateLimiter, logger *zap.Logger) (*gin.Engine, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			return nil, fmt.Errorf("register validators: %w", err)
		}
	}

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	limited := middleware.RateLimit(limiter, cfg.Server.RateLimit, cfg.Server.RateWindow)
	admin := middleware.RoleAuth("admin")

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(verifier))
	{
		sessions := v1.Group("/academic-sessions")
		{
			sessions.GET("", h.AcademicSession.ListSessions)
			sessions.GET("/current", h.AcademicSession.GetCurrentSession)
			sessions.GET("/periods", h.AcademicSession.GetPeriods)
			sessions.GET("/export", admin, h.Export.ExportSessions)
			sessions.POST("", admin, limited, h.AcademicSession.CreateSession)
			sessions.PUT("/archive", admin, limited, h.AcademicSession.ArchiveSession)
			sessions.PUT("/rollover", admin, limited, h.AcademicSession.Rollover)
		}

		mentees := v1.Group("/mentees")
		{
			mentees.GET("", h.Mentee.ListMentees)
			mentees.POST("/import", admin, limited, h.Mentee.ImportMentees)
		}
	}

	return r, nil
}
