package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type AssessmentController struct {
	Service *service.LearningService
}

func NewAssessmentController(svc *service.LearningService) *AssessmentController {
	return &AssessmentController{Service: svc}
}

// StartAssessmentRequest 开始评估请求
type StartAssessmentRequest struct {
	StudentID      string `json:"student_id" binding:"required"`
	Specialization string `json:"specialization" binding:"required"`
}

// @Summary 开始评估
// @Description 新学生创建档案并下发诊断测试；已有学生返回下一个学习内容
// @Tags 评估
// @Accept json
// @Produce json
// @Param body body StartAssessmentRequest true "学生信息"
// @Success 200 {object} util.Response
// @Router /api/assessment/start [post]
func (c *AssessmentController) Start(ctx *gin.Context) {
	var req StartAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.StartAssessment(ctx.Request.Context(), req.StudentID, req.Specialization)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrUnknownSpec):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrNoAssessmentData), errors.Is(err, util.ErrContentNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// SubmitAssessmentRequest 提交诊断测试请求，answers 为题目 ID 到所选选项下标的映射
type SubmitAssessmentRequest struct {
	StudentID string         `json:"student_id" binding:"required"`
	Answers   map[string]int `json:"answers" binding:"required"`
}

// @Summary 提交诊断测试
// @Description 批改诊断测试并生成评估、推荐与学习路径
// @Tags 评估
// @Accept json
// @Produce json
// @Param body body SubmitAssessmentRequest true "答卷"
// @Success 200 {object} util.Response
// @Router /api/assessment/submit [post]
func (c *AssessmentController) Submit(ctx *gin.Context) {
	var req SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitAssessment(ctx.Request.Context(), req.StudentID, req.Answers)
	if err != nil {
		if errors.Is(err, util.ErrStudentNotFound) {
			util.NotFound(ctx, err.Error())
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
