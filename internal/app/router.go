package app

import (
	"adaptive_learning_backend/docs"

	"adaptive_learning_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// 评估
		api.POST("/assessment/start", c.assessment.Start)
		api.POST("/assessment/submit", c.assessment.Submit)

		// 学习路径
		api.GET("/learning/next/:studentId", c.learning.Next)
		api.POST("/learning/quiz", c.learning.SubmitQuiz)
		api.POST("/learning/complete", c.learning.Complete)

		// 知识库内容
		api.GET("/topics", c.content.ListTopics)
		api.GET("/topics/:topicId/:subtopicId", c.content.GetTopicContent)
		api.GET("/specializations", c.content.ListSpecializations)

		// 学生进度
		api.GET("/progress/:studentId", c.progress.GetProgress)
		api.GET("/recommendations/:studentId", c.progress.GetRecommendations)
		api.GET("/achievements/:studentId", c.progress.GetAchievements)
	}
}
