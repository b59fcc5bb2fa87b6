package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	Service *service.LearningService
}

func NewProgressController(svc *service.LearningService) *ProgressController {
	return &ProgressController{Service: svc}
}

// @Summary 获取学生进度
// @Tags 进度
// @Produce json
// @Param studentId path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/progress/{studentId} [get]
func (c *ProgressController) GetProgress(ctx *gin.Context) {
	progress, err := c.Service.GetStudentProgress(ctx.Param("studentId"))
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 获取学习推荐
// @Description 按学生当前评估即时重算的推荐列表
// @Tags 进度
// @Produce json
// @Param studentId path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/recommendations/{studentId} [get]
func (c *ProgressController) GetRecommendations(ctx *gin.Context) {
	recommendations, err := c.Service.GetRecommendations(ctx.Param("studentId"))
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, recommendations)
}

// @Summary 获取学生成就
// @Tags 进度
// @Produce json
// @Param studentId path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/achievements/{studentId} [get]
func (c *ProgressController) GetAchievements(ctx *gin.Context) {
	achievements, err := c.Service.GetAchievements(ctx.Param("studentId"))
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, achievements)
}
