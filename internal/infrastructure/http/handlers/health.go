package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HealthDependenciesHandler handles GET /health/ready, the readiness probe.
// The relational store and Redis are required; MongoDB is only checked when
// the audit trail is enabled.
type HealthDependenciesHandler struct {
	db    *gorm.DB
	redis *redis.Client
	mongo *mongo.Database
}

// NewHealthDependenciesHandler builds the readiness probe. mdb may be nil.
func NewHealthDependenciesHandler(db *gorm.DB, rdb *redis.Client, mdb *mongo.Database) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{
		db:    db,
		redis: rdb,
		mongo: mdb,
	}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	deps := make(map[string]dependencyStatus)
	healthy := true

	check := func(name string, err error) {
		if err != nil {
			deps[name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			healthy = false
			return
		}
		deps[name] = dependencyStatus{Status: "ok"}
	}

	// --- Relational store ping ---
	check("database", h.pingDB(ctx))

	// --- Redis ping ---
	if h.redis != nil {
		check("redis", h.redis.Ping(ctx).Err())
	}

	// --- MongoDB ping (audit trail) ---
	if h.mongo != nil {
		check("mongodb", h.mongo.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err())
	}

	status := "ok"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}

func (h *HealthDependenciesHandler) pingDB(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
