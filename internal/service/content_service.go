package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	minStudyMinutes  = 5
	maxStudyMinutes  = 30
	wordsPerMinute   = 50
	contentCacheTTL  = time.Hour
	contentCacheKeyF = "topic_content:%s:%s:%s"
)

// TopicContent 渲染后的学习内容
// swagger:model
type TopicContent struct {
	TopicID            string           `json:"topic_id"`
	SubtopicID         string           `json:"subtopic_id"`
	Topic              string           `json:"topic"`
	SubtopicName       string           `json:"subtopic_name"`
	Level              model.Level      `json:"level"`
	Content            string           `json:"content"`
	PracticeQuestions  []model.Question `json:"practice_questions"`
	Specializations    map[string]string `json:"specializations"`
	SpecializationNote string           `json:"specialization_note,omitempty"`
	ProjectIdea        string           `json:"project_idea,omitempty"`
	Related            []string         `json:"related,omitempty"`
	EstimatedMinutes   int              `json:"estimated_time"`
}

// ContentService 知识库内容查询与装饰，可选 Redis 缓存渲染结果
type ContentService struct {
	KB    *repository.KnowledgeRepository
	Redis *redis.Client // nil 表示不启用缓存
}

func NewContentService(kb *repository.KnowledgeRepository, rdb *redis.Client) *ContentService {
	return &ContentService{KB: kb, Redis: rdb}
}

// TopicContent 返回指定子主题的完整学习内容。
// specialization 为空时不附加专业方向说明。
func (s *ContentService) TopicContent(ctx context.Context, topicID, subtopicID, specialization string) (*TopicContent, error) {
	cacheKey := fmt.Sprintf(contentCacheKeyF, topicID, subtopicID, specialization)
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var content TopicContent
			if err := json.Unmarshal(cached, &content); err == nil {
				return &content, nil
			}
		}
	}

	topic, ok := s.KB.Topic(topicID)
	if !ok {
		return nil, util.ErrContentNotFound
	}
	subtopic, ok := s.KB.Subtopic(topicID, subtopicID)
	if !ok {
		return nil, util.ErrContentNotFound
	}

	content := &TopicContent{
		TopicID:           topicID,
		SubtopicID:        subtopicID,
		Topic:             topic.Name,
		SubtopicName:      subtopic.Name,
		Level:             subtopic.Level,
		Content:           subtopic.Content,
		PracticeQuestions: subtopic.Questions,
		Specializations:   subtopic.Specializations,
		Related:           subtopic.Related,
		EstimatedMinutes:  estimateStudyMinutes(subtopic.Content),
	}

	if specialization != "" {
		if note, ok := subtopic.Specializations[specialization]; ok {
			content.SpecializationNote = note
		}
		if idea, ok := subtopic.Projects[specialization]; ok {
			content.ProjectIdea = idea
		}
	}

	if s.Redis != nil {
		if data, err := json.Marshal(content); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, data, contentCacheTTL).Err(); err != nil {
				logger.Log.Warn("caching topic content failed", zap.Error(err))
			}
		}
	}

	return content, nil
}

// estimateStudyMinutes 按阅读速度估算学习时长，限制在 [5, 30] 分钟
func estimateStudyMinutes(content string) int {
	minutes := len(strings.Fields(content)) / wordsPerMinute
	if minutes < minStudyMinutes {
		return minStudyMinutes
	}
	if minutes > maxStudyMinutes {
		return maxStudyMinutes
	}
	return minutes
}
