package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode picks the gin mode from the deployment environment. DEBUG
// keeps the verbose default even in production.
func SetGinMode(env string, debug bool) {
	if env == "production" && !debug {
		gin.SetMode(gin.ReleaseMode)
	}
}
