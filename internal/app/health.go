package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kitbase/authsync/internal/backend"
)

const healthCheckTimeout = 2 * time.Second

type HealthChecker struct {
	infra    Infrastructure
	provider backend.Provider
}

func NewHealthChecker(infra Infrastructure, provider backend.Provider) *HealthChecker {
	return &HealthChecker{
		infra:    infra,
		provider: provider,
	}
}

func (h *HealthChecker) check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	errs := make(chan error, 2)

	go func() {
		errs <- h.infra.Tokens().Ping(ctx)
	}()

	go func() {
		if conn := h.infra.NATS(); conn != nil && !conn.IsConnected() {
			errs <- errors.New("nats connection lost")
			return
		}
		errs <- nil
	}()

	return errors.Join(<-errs, <-errs)
}

func (h *HealthChecker) Handler(c *gin.Context) {
	if err := h.check(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "pass",
		"backend": string(h.provider.Name()),
	})
}
