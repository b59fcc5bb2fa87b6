package model

// Assessment 一次诊断测试的评分快照：综合水平 + 按主题键的得分
// swagger:model
type Assessment struct {
	OverallLevel Level              `json:"overall_level"`
	OverallScore float64            `json:"overall_score"`
	TopicScores  map[string]float64 `json:"topic_scores"`
	WeakTopics   []string           `json:"weak_topics"`
	StrongTopics []string           `json:"strong_topics"`
}

// ScoreFor 返回指定主题键的得分，未测过的主题按 0 分处理
func (a *Assessment) ScoreFor(key TopicKey) float64 {
	if a == nil || a.TopicScores == nil {
		return 0
	}
	return a.TopicScores[key.String()]
}

// Recommendation 推荐学习的子主题，按掌握程度的反比排定优先级。
// 嵌入学习路径时 Level 会被解析为子主题的实际难度。
// swagger:model
type Recommendation struct {
	Topic                     string  `json:"topic"`
	Subtopic                  string  `json:"subtopic"`
	SubtopicName              string  `json:"subtopic_name"`
	Priority                  float64 `json:"priority"`
	CurrentScore              float64 `json:"current_score"`
	SpecializationApplication string  `json:"specialization_application"`
	ContentLink               string  `json:"content_link"`
	Level                     Level   `json:"level,omitempty"`

	// 结构化键，content_link 的非字符串形式
	Key TopicKey `json:"key"`
}
