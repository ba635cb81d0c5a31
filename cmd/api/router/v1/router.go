package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/chat/presentation/http"
	"github.com/LabasniDAM/Labasni-Backend/internal/pkg/detect"
)

// RegisterRoutes mounts all version 1 API routes under /api/v1
func RegisterRoutes(r *gin.Engine, deps http.Deps) {
	v1 := r.Group("/api/v1")

	http.RegisterRoutes(v1, deps)

	v1.POST("/detect", detect.Handler())
}
