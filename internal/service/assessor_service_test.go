package service

import (
	"testing"

	"adaptive_learning_backend/internal/model"
	"adaptive_learning_backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
specializations:
  data_science: "Data Science"
  web_dev: "Web development"

topics:
  - id: python_basics
    name: "Python Basics"
    subtopics:
      - id: variables
        name: "Variables"
        level: beginner
        content: "Variables hold values in named slots of memory."
        questions:
          - text: "Q1"
            options: ["a", "b"]
            correct: 0
            explanation: ""
          - text: "Q2"
            options: ["a", "b"]
            correct: 1
            explanation: ""
          - text: "Q3"
            options: ["a", "b"]
            correct: 0
            explanation: ""
        specializations:
          data_science: "Variables hold arrays."
      - id: lists
        name: "Lists"
        level: beginner
        content: "Lists are ordered mutable sequences."
        questions:
          - text: "Q1"
            options: ["a", "b"]
            correct: 1
            explanation: ""
          - text: "Q2"
            options: ["a", "b"]
            correct: 0
            explanation: ""
        specializations:
          data_science: "Lists become arrays."
  - id: functions
    name: "Functions"
    subtopics:
      - id: basic_functions
        name: "Function Fundamentals"
        level: intermediate
        content: "Functions are defined with def and called by name."
        questions:
          - text: "Q1"
            options: ["a", "b"]
            correct: 0
            explanation: ""
          - text: "Q2"
            options: ["a", "b"]
            correct: 0
            explanation: ""
        specializations: {}
      - id: decorators
        name: "Decorators"
        level: advanced
        content: "Decorators wrap functions."
        questions:
          - text: "Q1"
            options: ["a", "b"]
            correct: 1
            explanation: ""
          - text: "Q2"
            options: ["a", "b"]
            correct: 1
            explanation: ""
        specializations: {}
  - id: oop
    name: "OOP"
    subtopics:
      - id: classes
        name: "Classes"
        level: intermediate
        content: "Classes bundle state and behaviour."
        questions:
          - text: "Q1"
            options: ["a", "b"]
            correct: 0
            explanation: ""
          - text: "Q2"
            options: ["a", "b"]
            correct: 1
            explanation: ""
        specializations:
          web_dev: "Classes represent models."
`

func newTestKB(t *testing.T) *repository.KnowledgeRepository {
	t.Helper()
	kb, err := repository.NewKnowledgeRepositoryFromBytes([]byte(testCatalog))
	require.NoError(t, err)
	return kb
}

func key(topicID, subtopicID string) model.TopicKey {
	return model.TopicKey{TopicID: topicID, SubtopicID: subtopicID}
}

func TestScoreOverallLevels(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 5)

	cases := []struct {
		name    string
		answers map[model.TopicKey][]int
		score   float64
		level   model.Level
	}{
		{
			name:    "exactly 75 is advanced",
			answers: map[model.TopicKey][]int{key("python_basics", "variables"): {1, 1, 1, 0}},
			score:   75,
			level:   model.LevelAdvanced,
		},
		{
			name:    "just below 75 is intermediate",
			answers: map[model.TopicKey][]int{key("python_basics", "variables"): {1, 1, 0}},
			score:   200.0 / 3.0,
			level:   model.LevelIntermediate,
		},
		{
			name: "exactly 40 is intermediate",
			answers: map[model.TopicKey][]int{
				key("python_basics", "variables"): {1, 1, 0, 0, 0},
			},
			score: 40,
			level: model.LevelIntermediate,
		},
		{
			name:    "below 40 is beginner",
			answers: map[model.TopicKey][]int{key("python_basics", "variables"): {1, 0, 0}},
			score:   100.0 / 3.0,
			level:   model.LevelBeginner,
		},
		{
			name:    "no answers is zero beginner",
			answers: map[model.TopicKey][]int{},
			score:   0,
			level:   model.LevelBeginner,
		},
		{
			name:    "empty vectors are skipped",
			answers: map[model.TopicKey][]int{key("python_basics", "variables"): {}},
			score:   0,
			level:   model.LevelBeginner,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := assessor.Score(tc.answers)
			assert.InDelta(t, tc.score, a.OverallScore, 1e-9)
			assert.Equal(t, tc.level, a.OverallLevel)
		})
	}
}

func TestScoreStrongAndWeakTopics(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 5)

	a := assessor.Score(map[model.TopicKey][]int{
		key("python_basics", "variables"): {1, 1, 1, 1, 1}, // 100 strong
		key("python_basics", "lists"):     {1, 0},          // 50 neither
		key("functions", "decorators"):    {0, 1, 0},       // 33.3 weak
	})

	assert.Equal(t, []string{"python_basics_variables"}, a.StrongTopics)
	assert.Equal(t, []string{"functions_decorators"}, a.WeakTopics)
	assert.Equal(t, 100.0, a.TopicScores["python_basics_variables"])
	assert.Equal(t, 50.0, a.TopicScores["python_basics_lists"])
}

func TestRecommendOrderingAndCutoff(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 5)

	a := &model.Assessment{
		OverallLevel: model.LevelIntermediate,
		TopicScores: map[string]float64{
			"python_basics_variables": 90, // 达标，不推荐
			"python_basics_lists":     70, // 正好在线上，不推荐
			"functions_decorators":    30,
			"oop_classes":             60,
		},
	}

	recs := assessor.Recommend(a, "data_science")
	require.Len(t, recs, 3)

	// basic_functions 没测过按 0 分，优先级最高
	assert.Equal(t, "basic_functions", recs[0].Subtopic)
	assert.Equal(t, 100.0, recs[0].Priority)
	assert.Equal(t, "decorators", recs[1].Subtopic)
	assert.Equal(t, 70.0, recs[1].Priority)
	assert.Equal(t, "classes", recs[2].Subtopic)
	assert.Equal(t, "oop/classes", recs[2].ContentLink)
}

func TestRecommendStableTieOrder(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 5)

	// 全 0 分同优先级，必须保持目录顺序
	recs := assessor.Recommend(&model.Assessment{
		OverallLevel: model.LevelBeginner,
		TopicScores:  map[string]float64{},
	}, "data_science")

	require.Len(t, recs, 5)
	subtopics := make([]string, len(recs))
	for i, r := range recs {
		subtopics[i] = r.Subtopic
	}
	assert.Equal(t, []string{"variables", "lists", "basic_functions", "decorators", "classes"}, subtopics)
}

func TestRecommendTruncatesToLimit(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 2)

	recs := assessor.Recommend(&model.Assessment{
		OverallLevel: model.LevelBeginner,
		TopicScores:  map[string]float64{},
	}, "data_science")

	assert.Len(t, recs, 2)
}

func TestRecommendLevelFilter(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), true, 5)

	recs := assessor.Recommend(&model.Assessment{
		OverallLevel: model.LevelAdvanced,
		TopicScores:  map[string]float64{},
	}, "data_science")

	require.Len(t, recs, 1)
	assert.Equal(t, "decorators", recs[0].Subtopic)
}

func TestRecommendFallbackApplicationText(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 5)

	recs := assessor.Recommend(&model.Assessment{
		OverallLevel: model.LevelBeginner,
		TopicScores:  map[string]float64{},
	}, "web_dev")

	for _, r := range recs {
		assert.NotEmpty(t, r.SpecializationApplication)
	}
	// variables 的目录里没有 web_dev 的说明，使用通用文案
	assert.Contains(t, recs[0].SpecializationApplication, "web_dev")
}

func TestBlendAssessments(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 5)

	old := &model.Assessment{TopicScores: map[string]float64{
		"python_basics_variables": 40,
		"oop_classes":             80,
	}}
	fresh := &model.Assessment{TopicScores: map[string]float64{
		"python_basics_variables": 90,
		"functions_decorators":    50,
	}}

	blended := assessor.Blend(old, fresh)

	assert.InDelta(t, 0.3*40+0.7*90, blended.TopicScores["python_basics_variables"], 1e-9)
	assert.Equal(t, 50.0, blended.TopicScores["functions_decorators"])
	// 只在旧评估里出现的主题不回流
	_, ok := blended.TopicScores["oop_classes"]
	assert.False(t, ok)
}

func TestBlendNilOld(t *testing.T) {
	assessor := NewAssessorService(newTestKB(t), false, 5)
	fresh := &model.Assessment{TopicScores: map[string]float64{"oop_classes": 10}}
	assert.Same(t, fresh, assessor.Blend(nil, fresh))
}
