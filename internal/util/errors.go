package util

import "errors"

var (
	ErrStudentNotFound  = errors.New("学生不存在")
	ErrContentNotFound  = errors.New("主题内容不存在")
	ErrNoAssessmentData = errors.New("尚未完成诊断测试，无法生成学习路径")
	ErrUnknownSpec      = errors.New("未知的专业方向")
)
