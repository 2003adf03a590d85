// Package monitor exposes read-only HTTP endpoints over the engine's
// shared state for operators.
package monitor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mqguard/mqguard/engine"
)

func InitHTTPMonitor(e *engine.Engine, port string) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	router.GET("api/v1/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, e.Stats())
	})

	router.GET("api/v1/connections", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"clients": e.ConnectedClients()})
	})

	router.GET("api/v1/sessions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"keys": e.SessionKeys()})
	})

	router.GET("api/v1/quota/:clientid", func(c *gin.Context) {
		clientid := c.Param("clientid")
		used, ok := e.QuotaUsage(clientid)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"clientid": clientid})
			return
		}
		c.JSON(http.StatusOK, gin.H{"clientid": clientid, "usedBytes": used})
	})

	return router.Run(":" + port)
}
