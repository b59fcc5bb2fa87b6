package model

import "time"

// StudiedTopic 已学习主题记录，同一主题键只保留一条，重复学习累加 RetakeCount
type StudiedTopic struct {
	TopicKey      string     `json:"topic_key"`
	TopicID       string     `json:"topic_id"`
	SubtopicID    string     `json:"subtopic_id"`
	CompletedDate time.Time  `json:"completed_date"`
	Score         float64    `json:"score"`
	RetakeCount   int        `json:"retake_count"`
	LastRetakeAt  *time.Time `json:"last_retake_at,omitempty"`
}

// Achievement 一次性里程碑，按 ID 去重
type Achievement struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	DateEarned  time.Time `json:"date_earned"`
}

// StudentRecord 学生的全部可变状态，整体持久化
// swagger:model
type StudentRecord struct {
	StudentID              string           `json:"student_id"`
	Specialization         string           `json:"specialization"`
	CurrentLevel           Level            `json:"current_level"`
	Assessment             *Assessment      `json:"assessment"`
	Recommendations        []Recommendation `json:"recommendations"`
	LearningPath           []Recommendation `json:"learning_path"`
	CurrentTopicIndex      int              `json:"current_topic_index"`
	StudiedTopics          []StudiedTopic   `json:"studied_topics"`
	StartDate              time.Time        `json:"start_date"`
	LastActivity           time.Time        `json:"last_activity"`
	LastStudyDate          time.Time        `json:"last_study_date"`
	StreakDays             int              `json:"streak_days"`
	TotalQuestionsAnswered int              `json:"total_questions_answered"`
	TotalCorrectAnswers    int              `json:"total_correct_answers"`
	Achievements           []Achievement    `json:"achievements"`
	LastTestScore          float64          `json:"last_test_score"`
}

// HasAchievement 判断学生是否已获得指定成就
func (r *StudentRecord) HasAchievement(id string) bool {
	for _, a := range r.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// FindStudiedTopic 按主题键查找已学习记录
func (r *StudentRecord) FindStudiedTopic(key string) *StudiedTopic {
	for i := range r.StudiedTopics {
		if r.StudiedTopics[i].TopicKey == key {
			return &r.StudiedTopics[i]
		}
	}
	return nil
}

// TestQuestion 诊断测试下发给前端的题目，ID 编码了主题与题号，
// 不携带正确答案（批改时由知识库反查）
// swagger:model
type TestQuestion struct {
	ID           string   `json:"id"`
	Topic        string   `json:"topic"`
	Subtopic     string   `json:"subtopic"`
	SubtopicName string   `json:"subtopic_name"`
	Question     string   `json:"question"`
	Options      []string `json:"options"`
}
