package proxy

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Upstream  string    `json:"upstream"`
}

// HealthHandler reports liveness.
type HealthHandler struct {
	serviceName string
	version     string
	upstream    string
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(serviceName, version, upstream string) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		upstream:    upstream,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Upstream:  h.upstream,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
