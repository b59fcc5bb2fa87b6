package controller

import (
	"adaptive_learning_backend/internal/service"
	"adaptive_learning_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

type LearningController struct {
	Service *service.LearningService
}

func NewLearningController(svc *service.LearningService) *LearningController {
	return &LearningController{Service: svc}
}

// @Summary 获取下一个学习内容
// @Description 返回学习路径游标处的完整内容与进度，并刷新连续学习天数
// @Tags 学习
// @Produce json
// @Param studentId path string true "学生ID"
// @Success 200 {object} util.Response
// @Router /api/learning/next/{studentId} [get]
func (c *LearningController) Next(ctx *gin.Context) {
	studentID := ctx.Param("studentId")

	result, err := c.Service.NextContent(ctx.Request.Context(), studentID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStudentNotFound), errors.Is(err, util.ErrContentNotFound):
			util.NotFound(ctx, err.Error())
		case errors.Is(err, util.ErrNoAssessmentData):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// QuizRequest 主题测验答卷，answers 按题目顺序给出所选选项下标
type QuizRequest struct {
	StudentID  string `json:"student_id" binding:"required"`
	TopicID    string `json:"topic_id" binding:"required"`
	SubtopicID string `json:"subtopic_id" binding:"required"`
	Answers    []int  `json:"answers" binding:"required"`
}

// @Summary 提交主题测验
// @Description 批改测验并记录学习完成，达标时附带下一个学习内容
// @Tags 学习
// @Accept json
// @Produce json
// @Param body body QuizRequest true "答卷"
// @Success 200 {object} util.Response
// @Router /api/learning/quiz [post]
func (c *LearningController) SubmitQuiz(ctx *gin.Context) {
	var req QuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.Service.SubmitTopicQuiz(ctx.Request.Context(),
		req.StudentID, req.TopicID, req.SubtopicID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStudentNotFound), errors.Is(err, util.ErrContentNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}

// CompleteRequest 直接记录主题学习完成，score 取 [0,1]
type CompleteRequest struct {
	StudentID  string  `json:"student_id" binding:"required"`
	TopicID    string  `json:"topic_id" binding:"required"`
	SubtopicID string  `json:"subtopic_id" binding:"required"`
	Score      float64 `json:"score"`
}

// @Summary 记录主题学习完成
// @Tags 学习
// @Accept json
// @Produce json
// @Param body body CompleteRequest true "完成信息"
// @Success 200 {object} util.Response
// @Router /api/learning/complete [post]
func (c *LearningController) Complete(ctx *gin.Context) {
	var req CompleteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Score < 0 || req.Score > 1 {
		util.BadRequest(ctx, "score must be between 0 and 1")
		return
	}

	result, err := c.Service.MarkTopicCompleted(req.StudentID, req.TopicID, req.SubtopicID, req.Score)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrStudentNotFound), errors.Is(err, util.ErrContentNotFound):
			util.NotFound(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, result)
}
