package controller

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type ContentController struct {
	KB      *repository.KnowledgeRepository
	Service *service.ContentService
}

func NewContentController(kb *repository.KnowledgeRepository, svc *service.ContentService) *ContentController {
	return &ContentController{KB: kb, Service: svc}
}

// TopicSummary 主题目录摘要
type TopicSummary struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Subtopics []SubtopicSummary `json:"subtopics"`
}

// SubtopicSummary 子主题摘要
type SubtopicSummary struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Level     model.Level `json:"level"`
	Questions int         `json:"questions"`
}

// @Summary 获取主题目录
// @Tags 内容
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/topics [get]
func (c *ContentController) ListTopics(ctx *gin.Context) {
	topics := c.KB.Topics()
	summaries := make([]TopicSummary, 0, len(topics))
	for _, topic := range topics {
		summary := TopicSummary{ID: topic.ID, Name: topic.Name}
		for _, subtopic := range topic.Subtopics {
			summary.Subtopics = append(summary.Subtopics, SubtopicSummary{
				ID:        subtopic.ID,
				Name:      subtopic.Name,
				Level:     subtopic.Level,
				Questions: len(subtopic.Questions),
			})
		}
		summaries = append(summaries, summary)
	}
	util.Success(ctx, summaries)
}

// @Summary 获取子主题学习内容
// @Description 返回完整学习材料，可通过 specialization 参数附加方向相关说明
// @Tags 内容
// @Produce json
// @Param topicId path string true "主题ID"
// @Param subtopicId path string true "子主题ID"
// @Param specialization query string false "方向"
// @Success 200 {object} util.Response
// @Router /api/topics/{topicId}/{subtopicId} [get]
func (c *ContentController) GetTopicContent(ctx *gin.Context) {
	content, err := c.Service.TopicContent(ctx.Request.Context(),
		ctx.Param("topicId"), ctx.Param("subtopicId"), ctx.Query("specialization"))
	if err != nil {
		if errors.Is(err, util.ErrContentNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, content)
}

// @Summary 获取可选方向列表
// @Tags 内容
// @Produce json
// @Success 200 {object} util.Response
// @Router /api/specializations [get]
func (c *ContentController) ListSpecializations(ctx *gin.Context) {
	util.Success(ctx, c.KB.Specializations())
}
