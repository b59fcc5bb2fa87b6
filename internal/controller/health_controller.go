package controller

import (
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type HealthController struct {
	KB    *repository.KnowledgeRepository
	Redis *redis.Client
}

func NewHealthController(kb *repository.KnowledgeRepository, rdb *redis.Client) *HealthController {
	return &HealthController{KB: kb, Redis: rdb}
}

// @Summary 健康检查
// @Description 检查服务与依赖组件状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{
		"knowledge_base": gin.H{
			"topics":    len(c.KB.Topics()),
			"subtopics": c.KB.TotalSubtopics(),
		},
	}

	if c.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			components["redis"] = "down"
			util.Error(ctx, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
		components["redis"] = "up"
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
