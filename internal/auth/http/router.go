package http

import "github.com/gin-gonic/gin"

// Register mounts the session endpoints. loginLimit guards the password
// sign-in route.
func (h *Handler) Register(rg *gin.RouterGroup, loginLimit gin.HandlerFunc) {
	rg.POST("/session", h.CreateSession)
	rg.GET("/session", h.GetSession)
	rg.DELETE("/session", h.DeleteSession)
	rg.POST("/login", loginLimit, h.Login)
}
