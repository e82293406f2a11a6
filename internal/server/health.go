package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports process liveness and store reachability. db_code is the
// ordinal form probes alert on: 0 online, 1 offline.
func (s *Server) Health(c *gin.Context) {
	dbStatus, dbCode := "Online", 0

	sqlDB, err := s.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		dbStatus, dbCode = "Offline", 1
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"service":   s.cfg.AppName,
		"db_status": dbStatus,
		"db_code":   dbCode,
	})
}
