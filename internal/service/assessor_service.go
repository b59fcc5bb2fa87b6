package service

import (
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"fmt"
	"sort"
)

// 评估阈值
const (
	overallAdvancedThreshold     = 75.0
	overallIntermediateThreshold = 40.0
	topicStrongThreshold         = 80.0
	topicWeakThreshold           = 50.0
	recommendCutoff              = 70.0

	// 增量重评时新旧成绩的加权比例
	blendOldWeight = 0.3
	blendNewWeight = 0.7
)

// AssessorService 纯评分与推荐逻辑，不持有学生状态
type AssessorService struct {
	KB *repository.KnowledgeRepository

	// 是否仅推荐与学生综合水平同级的子主题
	FilterByLevel bool

	// 推荐条数上限
	MaxRecommendations int
}

func NewAssessorService(kb *repository.KnowledgeRepository, filterByLevel bool, maxRecommendations int) *AssessorService {
	if maxRecommendations <= 0 {
		maxRecommendations = 5
	}
	return &AssessorService{
		KB:                 kb,
		FilterByLevel:      filterByLevel,
		MaxRecommendations: maxRecommendations,
	}
}

// Score 根据每个主题键的逐题对错向量（1=答对）生成评估。
// 空向量的主题键被跳过；没有任何答案时综合得分为 0。
func (s *AssessorService) Score(answers map[model.TopicKey][]int) *model.Assessment {
	assessment := &model.Assessment{
		OverallLevel: model.LevelBeginner,
		TopicScores:  map[string]float64{},
		WeakTopics:   []string{},
		StrongTopics: []string{},
	}

	totalCorrect := 0
	totalQuestions := 0

	for key, vector := range answers {
		if len(vector) == 0 {
			continue
		}

		correct := 0
		for _, v := range vector {
			if v == 1 {
				correct++
			}
		}

		score := float64(correct) / float64(len(vector)) * 100
		assessment.TopicScores[key.String()] = score

		switch {
		case score >= topicStrongThreshold:
			assessment.StrongTopics = append(assessment.StrongTopics, key.String())
		case score < topicWeakThreshold:
			assessment.WeakTopics = append(assessment.WeakTopics, key.String())
		}

		totalCorrect += correct
		totalQuestions += len(vector)
	}

	if totalQuestions > 0 {
		assessment.OverallScore = float64(totalCorrect) / float64(totalQuestions) * 100
	}

	assessment.OverallLevel = ClassifyOverall(assessment.OverallScore)
	return assessment
}

// ClassifyOverall 综合得分到水平的映射
func ClassifyOverall(score float64) model.Level {
	switch {
	case score >= overallAdvancedThreshold:
		return model.LevelAdvanced
	case score >= overallIntermediateThreshold:
		return model.LevelIntermediate
	default:
		return model.LevelBeginner
	}
}

// Recommend 扫描整个知识库，把得分低于 70 的子主题按优先级（100-得分）
// 降序排列，截取前 MaxRecommendations 条。排序稳定，同分保持目录顺序。
// 纯函数：同样的评估、专业方向和知识库总是产生同样的结果。
func (s *AssessorService) Recommend(assessment *model.Assessment, specialization string) []model.Recommendation {
	recommendations := []model.Recommendation{}

	for _, topic := range s.KB.Topics() {
		for _, subtopic := range topic.Subtopics {
			if s.FilterByLevel && subtopic.Level != assessment.OverallLevel {
				continue
			}

			key := model.TopicKey{TopicID: topic.ID, SubtopicID: subtopic.ID}
			score := assessment.ScoreFor(key)
			if score >= recommendCutoff {
				continue
			}

			application, ok := subtopic.Specializations[specialization]
			if !ok {
				application = fmt.Sprintf("这个主题对 %s 方向同样重要。", specialization)
			}

			recommendations = append(recommendations, model.Recommendation{
				Topic:                     topic.Name,
				Subtopic:                  subtopic.ID,
				SubtopicName:              subtopic.Name,
				Priority:                  100 - score,
				CurrentScore:              score,
				SpecializationApplication: application,
				ContentLink:               key.ContentLink(),
				Key:                       key,
			})
		}
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].Priority > recommendations[j].Priority
	})

	if len(recommendations) > s.MaxRecommendations {
		recommendations = recommendations[:s.MaxRecommendations]
	}
	return recommendations
}

// Blend 合并新旧两次评估：两者都有的主题键按 3:7 加权，
// 仅出现在新评估中的主题键原样保留
func (s *AssessorService) Blend(old, fresh *model.Assessment) *model.Assessment {
	if old == nil {
		return fresh
	}
	for key, newScore := range fresh.TopicScores {
		if oldScore, ok := old.TopicScores[key]; ok {
			fresh.TopicScores[key] = oldScore*blendOldWeight + newScore*blendNewWeight
		}
	}
	return fresh
}
