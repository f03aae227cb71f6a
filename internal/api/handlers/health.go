package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health handles GET /healthz.
func (s *Server) Health(c *gin.Context) {
	checks := make(map[string]string)
	status := "ok"
	httpStatus := http.StatusOK

	if s.db != nil {
		if err := s.db.Ping(c.Request.Context()); err != nil {
			checks["database"] = "error"
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["database"] = "ok"
		}
	}

	c.JSON(httpStatus, gin.H{
		"status": status,
		"checks": checks,
	})
}
