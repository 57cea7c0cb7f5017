package router

import "github.com/gin-gonic/gin"

// New builds the gin engine all modules mount on.
func New() *gin.Engine {
	return gin.Default()
}
