package service

import (
	"adaptive_learning_backend/internal/config"
	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"
	"adaptive_learning_backend/internal/util"
	"adaptive_learning_backend/pkg/logger"
	"adaptive_learning_backend/pkg/monitoring"
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// unknownTopicKey 无法解析的诊断题目 ID 归入的合成主题键
var unknownTopicKey = model.TopicKey{TopicID: "unknown", SubtopicID: "unknown"}

// LearningService 学习引擎：持有全部学生记录，负责评估生命周期、
// 学习路径推进、测验批改、连续学习天数与成就，以及持久化。
// 所有状态变更在同一把互斥锁下串行执行。
type LearningService struct {
	KB       *repository.KnowledgeRepository
	Assessor *AssessorService
	Content  *ContentService
	Store    repository.ProgressStore

	mu      sync.Mutex
	cfg     config.LearningConfig
	rng     *rand.Rand
	records map[string]*model.StudentRecord
}

// NewLearningService 构造引擎并从存储整体加载学生记录。
// rng 由调用方注入，测试中传入固定种子保证诊断抽题可复现。
func NewLearningService(
	kb *repository.KnowledgeRepository,
	assessor *AssessorService,
	content *ContentService,
	store repository.ProgressStore,
	cfg config.LearningConfig,
	rng *rand.Rand,
) (*LearningService, error) {
	records, err := store.Load()
	if err != nil {
		return nil, err
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	logger.Log.Info("student records loaded", zap.Int("count", len(records)))

	return &LearningService{
		KB:       kb,
		Assessor: assessor,
		Content:  content,
		Store:    store,
		cfg:      cfg,
		rng:      rng,
		records:  records,
	}, nil
}

// UpdateConfig 热更新可调学习参数（配置文件变更时由 configwatcher 触发）
func (s *LearningService) UpdateConfig(cfg config.LearningConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.Assessor.FilterByLevel = cfg.FilterRecommendationsByLevel
	if cfg.MaxRecommendations > 0 {
		s.Assessor.MaxRecommendations = cfg.MaxRecommendations
	}
}

// StartAssessmentResult 开始评估的返回：新学生得到诊断测试，
// 老学生幂等地拿到下一个待学习内容
type StartAssessmentResult struct {
	StudentID      string               `json:"student_id"`
	Specialization string               `json:"specialization"`
	Test           []model.TestQuestion `json:"test,omitempty"`
	Existing       bool                 `json:"existing,omitempty"`
	Next           *NextContentResult   `json:"next,omitempty"`
	Message        string               `json:"message"`
}

// StartAssessment 为新学生创建档案并生成诊断测试。
// 学生已存在时不重置档案：已有评估则返回下一个学习内容，
// 注册过但未交卷则重新下发一份测试。
func (s *LearningService) StartAssessment(ctx context.Context, studentID, specialization string) (*StartAssessmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.KB.HasSpecialization(specialization) {
		return nil, util.ErrUnknownSpec
	}

	if rec, ok := s.records[studentID]; ok {
		if rec.Assessment != nil {
			next, err := s.nextContentLocked(ctx, rec)
			if err != nil {
				return nil, err
			}
			s.persistLocked()
			return &StartAssessmentResult{
				StudentID:      studentID,
				Specialization: rec.Specialization,
				Existing:       true,
				Next:           next,
				Message:        "欢迎回来，继续您的学习路径",
			}, nil
		}
		return &StartAssessmentResult{
			StudentID:      studentID,
			Specialization: rec.Specialization,
			Existing:       true,
			Test:           s.generateDiagnosticTest(),
			Message:        "请完成诊断测试以确定您的水平",
		}, nil
	}

	now := time.Now()
	s.records[studentID] = &model.StudentRecord{
		StudentID:       studentID,
		Specialization:  specialization,
		CurrentLevel:    model.LevelUnknown,
		Recommendations: []model.Recommendation{},
		LearningPath:    []model.Recommendation{},
		StudiedTopics:   []model.StudiedTopic{},
		Achievements:    []model.Achievement{},
		StartDate:       now,
		LastActivity:    now,
		LastStudyDate:   now,
		StreakDays:      1,
	}
	s.persistLocked()

	return &StartAssessmentResult{
		StudentID:      studentID,
		Specialization: specialization,
		Test:           s.generateDiagnosticTest(),
		Message:        "请完成诊断测试以确定您的水平",
	}, nil
}

// generateDiagnosticTest 按难度配额抽题：把知识库全部题目按子主题难度
// 分桶，每个难度随机无放回抽取配额数量，合并后整体打乱并截断。
func (s *LearningService) generateDiagnosticTest() []model.TestQuestion {
	buckets := map[model.Level][]model.TestQuestion{}

	for _, topic := range s.KB.Topics() {
		for _, subtopic := range topic.Subtopics {
			key := model.TopicKey{TopicID: topic.ID, SubtopicID: subtopic.ID}
			for i, q := range subtopic.Questions {
				buckets[subtopic.Level] = append(buckets[subtopic.Level], model.TestQuestion{
					ID:           model.QuestionRef{Key: key, Index: i}.EncodeID(),
					Topic:        topic.Name,
					Subtopic:     subtopic.ID,
					SubtopicName: subtopic.Name,
					Question:     q.Text,
					Options:      q.Options,
				})
			}
		}
	}

	quotas := []struct {
		level model.Level
		count int
	}{
		{model.LevelBeginner, s.cfg.DiagnosticBeginner},
		{model.LevelIntermediate, s.cfg.DiagnosticIntermediate},
		{model.LevelAdvanced, s.cfg.DiagnosticAdvanced},
	}

	var test []model.TestQuestion
	for _, quota := range quotas {
		pool := buckets[quota.level]
		n := quota.count
		if n > len(pool) {
			n = len(pool)
		}
		for _, idx := range s.rng.Perm(len(pool))[:n] {
			test = append(test, pool[idx])
		}
	}

	s.rng.Shuffle(len(test), func(i, j int) {
		test[i], test[j] = test[j], test[i]
	})

	if max := s.cfg.MaxTestQuestions; max > 0 && len(test) > max {
		test = test[:max]
	}
	return test
}

// SubmitAssessmentResult 诊断测试提交结果
type SubmitAssessmentResult struct {
	StudentID       string                 `json:"student_id"`
	Assessment      *model.Assessment      `json:"assessment"`
	Recommendations []model.Recommendation `json:"recommendations"`
	LearningPath    []model.Recommendation `json:"learning_path"`
	TestScore       float64                `json:"test_score"`
	Message         string                 `json:"message"`
}

// SubmitAssessment 批改诊断测试：解码题目 ID、对照知识库标准答案
// 逐题判分，生成评估与推荐并构建学习路径。无法解析的题目 ID
// 计为 "unknown" 主题下的一次错误作答，不会使整次提交失败。
func (s *LearningService) SubmitAssessment(ctx context.Context, studentID string, answers map[string]int) (*SubmitAssessmentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[studentID]
	if !ok {
		return nil, util.ErrStudentNotFound
	}

	topicAnswers := map[model.TopicKey][]int{}
	for questionID, selected := range answers {
		ref, ok := s.resolveQuestionID(questionID)
		if !ok {
			logger.Log.Warn("unresolvable question id in submission",
				zap.String("studentId", studentID), zap.String("questionId", questionID))
			topicAnswers[unknownTopicKey] = append(topicAnswers[unknownTopicKey], 0)
			continue
		}

		subtopic, _ := s.KB.Subtopic(ref.Key.TopicID, ref.Key.SubtopicID)
		correctness := 0
		if selected == subtopic.Questions[ref.Index].Correct {
			correctness = 1
		}
		topicAnswers[ref.Key] = append(topicAnswers[ref.Key], correctness)
	}

	assessment := s.Assessor.Score(topicAnswers)
	if rec.Assessment != nil {
		assessment = s.Assessor.Blend(rec.Assessment, assessment)
	}

	recommendations := s.Assessor.Recommend(assessment, rec.Specialization)
	path := s.buildPath(recommendations, assessment.OverallLevel)

	now := time.Now()
	rec.CurrentLevel = assessment.OverallLevel
	rec.Assessment = assessment
	rec.Recommendations = recommendations
	rec.LearningPath = path
	rec.CurrentTopicIndex = 0
	rec.LastActivity = now
	rec.LastTestScore = assessment.OverallScore

	s.persistLocked()
	monitoring.AssessmentsSubmitted.Inc()

	preview := path
	if len(preview) > 3 {
		preview = preview[:3]
	}

	return &SubmitAssessmentResult{
		StudentID:       studentID,
		Assessment:      assessment,
		Recommendations: recommendations,
		LearningPath:    preview,
		TestScore:       assessment.OverallScore,
		Message: fmt.Sprintf("您的水平：%s，共找到 %d 个建议学习的主题",
			assessment.OverallLevel, len(recommendations)),
	}, nil
}

// resolveQuestionID 对照知识库目录解析 "topicID_subtopicID_qN" 形式的
// 题目 ID。主题和子主题 ID 都可能含下划线，纯字符串切分存在歧义，
// 因此按目录逐一前缀匹配。题号越界视为不可解析。
func (s *LearningService) resolveQuestionID(id string) (model.QuestionRef, bool) {
	for _, topic := range s.KB.Topics() {
		topicPrefix := topic.ID + "_"
		if !strings.HasPrefix(id, topicPrefix) {
			continue
		}
		rest := id[len(topicPrefix):]
		for _, subtopic := range topic.Subtopics {
			subPrefix := subtopic.ID + "_q"
			if !strings.HasPrefix(rest, subPrefix) {
				continue
			}
			n, err := strconv.Atoi(rest[len(subPrefix):])
			if err != nil || n < 0 || n >= len(subtopic.Questions) {
				continue
			}
			return model.QuestionRef{
				Key:   model.TopicKey{TopicID: topic.ID, SubtopicID: subtopic.ID},
				Index: n,
			}, true
		}
	}
	return model.QuestionRef{}, false
}

// buildPath 按学生综合水平混合不同难度的推荐，生成有序学习路径。
// 各难度内部保持推荐的优先级顺序，整体按 beginner、intermediate、
// advanced 的顺序拼接，最长 MaxPathLength 条。
func (s *LearningService) buildPath(recommendations []model.Recommendation, level model.Level) []model.Recommendation {
	var beginner, intermediate, advanced []model.Recommendation
	for _, rec := range recommendations {
		subtopic, ok := s.KB.Subtopic(rec.Key.TopicID, rec.Key.SubtopicID)
		if !ok {
			continue
		}
		rec.Level = subtopic.Level
		switch subtopic.Level {
		case model.LevelBeginner:
			beginner = append(beginner, rec)
		case model.LevelIntermediate:
			intermediate = append(intermediate, rec)
		case model.LevelAdvanced:
			advanced = append(advanced, rec)
		}
	}

	var path []model.Recommendation
	switch level {
	case model.LevelIntermediate:
		path = append(path, take(beginner, ceilDiv(len(beginner), 3))...)
		path = append(path, intermediate...)
		path = append(path, take(advanced, ceilDiv(len(advanced), 5))...)
	case model.LevelAdvanced:
		n := ceilDiv(len(intermediate), 2)
		if n < 2 {
			n = 2
		}
		path = append(path, take(intermediate, n)...)
		path = append(path, advanced...)
	default:
		path = append(path, beginner...)
		path = append(path, take(intermediate, ceilDiv(len(intermediate), 3))...)
	}

	if max := s.cfg.MaxPathLength; max > 0 && len(path) > max {
		path = path[:max]
	}
	return path
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func take(recs []model.Recommendation, n int) []model.Recommendation {
	if n > len(recs) {
		n = len(recs)
	}
	return recs[:n]
}

// PathProgress 学习路径进度
type PathProgress struct {
	CurrentTopic    int     `json:"current_topic"`
	TotalTopics     int     `json:"total_topics"`
	PercentComplete float64 `json:"percent_complete"`
	StudiedCount    int     `json:"studied_count"`
	StreakDays      int     `json:"streak_days"`
}

// NextContentResult 下一个学习内容及进度
type NextContentResult struct {
	Content   *TopicContent        `json:"content"`
	TopicInfo model.Recommendation `json:"topic_info"`
	Progress  PathProgress         `json:"progress"`
}

// NextContent 返回学习路径游标处的完整内容。先刷新连续学习天数；
// 路径缺失时从当前评估重建；游标走到末尾时颁发成就并重新生成路径。
func (s *LearningService) NextContent(ctx context.Context, studentID string) (*NextContentResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[studentID]
	if !ok {
		return nil, util.ErrStudentNotFound
	}

	result, err := s.nextContentLocked(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.persistLocked()
	return result, nil
}

func (s *LearningService) nextContentLocked(ctx context.Context, rec *model.StudentRecord) (*NextContentResult, error) {
	s.refreshStreak(rec)

	if len(rec.LearningPath) == 0 {
		if rec.Assessment == nil {
			return nil, util.ErrNoAssessmentData
		}
		if !s.rebuildPathLocked(rec) {
			// 所有主题都已达标，没有可学内容
			return nil, util.ErrContentNotFound
		}
	} else if rec.CurrentTopicIndex >= len(rec.LearningPath) {
		if rec.Assessment == nil {
			return nil, util.ErrNoAssessmentData
		}
		s.grantAchievement(rec, "path_completed", "完成了一条完整的学习路径")
		if !s.rebuildPathLocked(rec) {
			return nil, util.ErrContentNotFound
		}
	}

	entry := rec.LearningPath[rec.CurrentTopicIndex]
	content, err := s.Content.TopicContent(ctx, entry.Key.TopicID, entry.Key.SubtopicID, rec.Specialization)
	if err != nil {
		return nil, err
	}

	return &NextContentResult{
		Content:   content,
		TopicInfo: entry,
		Progress: PathProgress{
			CurrentTopic:    rec.CurrentTopicIndex + 1,
			TotalTopics:     len(rec.LearningPath),
			PercentComplete: float64(rec.CurrentTopicIndex) / float64(len(rec.LearningPath)) * 100,
			StudiedCount:    len(rec.StudiedTopics),
			StreakDays:      rec.StreakDays,
		},
	}, nil
}

// rebuildPathLocked 从当前评估重建推荐与学习路径并复位游标，
// 返回新路径是否非空
func (s *LearningService) rebuildPathLocked(rec *model.StudentRecord) bool {
	rec.Recommendations = s.Assessor.Recommend(rec.Assessment, rec.Specialization)
	rec.LearningPath = s.buildPath(rec.Recommendations, rec.Assessment.OverallLevel)
	rec.CurrentTopicIndex = 0
	return len(rec.LearningPath) > 0
}

// refreshStreak 按日历天数刷新连续学习计数：隔 1 天加一，隔多天归一，
// 同一天不变。last_study_date 无条件刷新为当前时间。
func (s *LearningService) refreshStreak(rec *model.StudentRecord) {
	now := time.Now()
	if !rec.LastStudyDate.IsZero() {
		gap := calendarDays(rec.LastStudyDate, now)
		switch {
		case gap == 1:
			rec.StreakDays++
		case gap > 1:
			rec.StreakDays = 1
		}
	}
	if rec.StreakDays == 0 {
		rec.StreakDays = 1
	}
	rec.LastStudyDate = now
	rec.LastActivity = now
}

// calendarDays 两个时间点相隔的日历天数（忽略时分秒）
func calendarDays(from, to time.Time) int {
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location())
	return int(toDay.Sub(fromDay).Hours() / 24)
}

// QuizResult 主题测验批改结果
type QuizResult struct {
	Score     float64            `json:"score"`
	Correct   int                `json:"correct"`
	Total     int                `json:"total"`
	Passed    bool               `json:"passed"`
	NextTopic *NextContentResult `json:"next_topic,omitempty"`
}

// SubmitTopicQuiz 批改主题测验。按题目顺序与提交的选项逐一比对，
// 多余的未作答题目不计入总数。无论是否达标都记录学习完成；
// 默认配置下路径游标也无条件推进。达标时附带下一个学习内容。
func (s *LearningService) SubmitTopicQuiz(ctx context.Context, studentID, topicID, subtopicID string, answers []int) (*QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[studentID]
	if !ok {
		return nil, util.ErrStudentNotFound
	}

	subtopic, ok := s.KB.Subtopic(topicID, subtopicID)
	if !ok {
		return nil, util.ErrContentNotFound
	}

	total := len(subtopic.Questions)
	if len(answers) < total {
		total = len(answers)
	}

	correct := 0
	for i := 0; i < total; i++ {
		if answers[i] == subtopic.Questions[i].Correct {
			correct++
		}
	}

	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total)
	}

	s.markTopicCompletedLocked(rec, model.TopicKey{TopicID: topicID, SubtopicID: subtopicID}, score)

	passed := score >= s.cfg.QuizPassThreshold
	if (s.cfg.AdvanceOnFailedQuiz || passed) && rec.CurrentTopicIndex < len(rec.LearningPath) {
		rec.CurrentTopicIndex++
	}

	rec.TotalQuestionsAnswered += total
	rec.TotalCorrectAnswers += correct

	s.checkAchievements(rec)
	monitoring.QuizzesGraded.WithLabelValues(strconv.FormatBool(passed)).Inc()

	result := &QuizResult{
		Score:   score,
		Correct: correct,
		Total:   total,
		Passed:  passed,
	}

	if passed {
		next, err := s.nextContentLocked(ctx, rec)
		if err == nil {
			result.NextTopic = next
		}
	}

	s.persistLocked()
	return result, nil
}

// MarkResult 学习完成记录结果
type MarkResult struct {
	Message      string `json:"message"`
	TotalStudied int    `json:"total_studied"`
}

// MarkTopicCompleted 记录一次主题学习。score 取 [0,1]。
func (s *LearningService) MarkTopicCompleted(studentID, topicID, subtopicID string, score float64) (*MarkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[studentID]
	if !ok {
		return nil, util.ErrStudentNotFound
	}
	if _, ok := s.KB.Subtopic(topicID, subtopicID); !ok {
		return nil, util.ErrContentNotFound
	}

	s.markTopicCompletedLocked(rec, model.TopicKey{TopicID: topicID, SubtopicID: subtopicID}, score)
	s.persistLocked()

	return &MarkResult{
		Message:      fmt.Sprintf("主题 %q 已记录为已学习", subtopicID),
		TotalStudied: len(rec.StudiedTopics),
	}, nil
}

// markTopicCompletedLocked 首次学习追加记录并回写评估中的主题得分；
// 重复学习只累加 retake 计数，不改动已存得分也不产生重复记录。
func (s *LearningService) markTopicCompletedLocked(rec *model.StudentRecord, key model.TopicKey, score float64) {
	now := time.Now()

	if existing := rec.FindStudiedTopic(key.String()); existing != nil {
		existing.RetakeCount++
		existing.LastRetakeAt = &now
		rec.LastActivity = now
		return
	}

	rec.StudiedTopics = append(rec.StudiedTopics, model.StudiedTopic{
		TopicKey:      key.String(),
		TopicID:       key.TopicID,
		SubtopicID:    key.SubtopicID,
		CompletedDate: now,
		Score:         score,
	})

	if rec.Assessment != nil {
		if rec.Assessment.TopicScores == nil {
			rec.Assessment.TopicScores = map[string]float64{}
		}
		rec.Assessment.TopicScores[key.String()] = score * 100
	}
	rec.LastActivity = now
}

// checkAchievements 检查计数类成就，每项成就每个学生至多一次
func (s *LearningService) checkAchievements(rec *model.StudentRecord) {
	if rec.StreakDays >= 7 {
		s.grantAchievement(rec, "week_streak", "连续学习 7 天")
	}
	if rec.StreakDays >= 30 {
		s.grantAchievement(rec, "month_streak", "连续学习 30 天")
	}
	if len(rec.StudiedTopics) >= 5 {
		s.grantAchievement(rec, "5_topics", "学完 5 个主题")
	}
	if len(rec.StudiedTopics) >= 10 {
		s.grantAchievement(rec, "10_topics", "学完 10 个主题")
	}
	if rec.TotalQuestionsAnswered >= 20 &&
		float64(rec.TotalCorrectAnswers)/float64(rec.TotalQuestionsAnswered) >= 0.8 {
		s.grantAchievement(rec, "high_accuracy", "答题正确率达到 80%")
	}
}

func (s *LearningService) grantAchievement(rec *model.StudentRecord, id, description string) {
	if rec.HasAchievement(id) {
		return
	}
	rec.Achievements = append(rec.Achievements, model.Achievement{
		ID:          id,
		Description: description,
		DateEarned:  time.Now(),
	})
	monitoring.AchievementsGranted.WithLabelValues(id).Inc()
	logger.Log.Info("achievement granted",
		zap.String("studentId", rec.StudentID), zap.String("achievement", id))
}

// StudentProgress 学生全量进度视图
type StudentProgress struct {
	model.StudentRecord
	OverallProgressPercentage float64 `json:"overall_progress_percentage"`
	AccuracyPercentage        float64 `json:"accuracy_percentage"`
}

// GetStudentProgress 返回学生记录副本及总体进度、答题正确率
func (s *LearningService) GetStudentProgress(studentID string) (*StudentProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[studentID]
	if !ok {
		return nil, util.ErrStudentNotFound
	}

	progress := &StudentProgress{StudentRecord: *rec}
	if total := s.KB.TotalSubtopics(); total > 0 {
		progress.OverallProgressPercentage = float64(len(rec.StudiedTopics)) / float64(total) * 100
	}
	if rec.TotalQuestionsAnswered > 0 {
		progress.AccuracyPercentage = float64(rec.TotalCorrectAnswers) / float64(rec.TotalQuestionsAnswered) * 100
	}
	return progress, nil
}

// GetRecommendations 按当前评估即时重算推荐；尚未评估时返回空列表
func (s *LearningService) GetRecommendations(studentID string) ([]model.Recommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[studentID]
	if !ok {
		return nil, util.ErrStudentNotFound
	}
	if rec.Assessment == nil {
		return []model.Recommendation{}, nil
	}
	return s.Assessor.Recommend(rec.Assessment, rec.Specialization), nil
}

// GetAchievements 返回学生的成就列表
func (s *LearningService) GetAchievements(studentID string) ([]model.Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[studentID]
	if !ok {
		return nil, util.ErrStudentNotFound
	}
	return rec.Achievements, nil
}

// Flush 把当前全部学生记录写入存储，供后台定时刷盘与优雅退出调用
func (s *LearningService) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Store.Save(s.records)
}

// persistLocked 状态变更后落盘。持久化失败只记日志，
// 内存状态仍然有效，下一次变更会重试整体保存。
func (s *LearningService) persistLocked() {
	if err := s.Store.Save(s.records); err != nil {
		logger.Log.Error("saving student records failed", zap.Error(err))
	}
}
