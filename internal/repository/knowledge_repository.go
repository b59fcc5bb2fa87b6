package repository

import (
	"adaptive_learning_backend/internal/model"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalog 知识库 YAML 文件的顶层结构
type catalog struct {
	Specializations map[string]string `yaml:"specializations"`
	Topics          []model.Topic     `yaml:"topics"`
}

// KnowledgeRepository 只读知识库目录。加载后不再变更，
// 主题与子主题保持目录文件中的定义顺序，保证推荐排序的稳定性。
type KnowledgeRepository struct {
	topics          []model.Topic
	topicIndex      map[string]int
	specializations map[string]string
	totalSubtopics  int
}

// NewKnowledgeRepository 从 YAML 目录文件加载知识库
func NewKnowledgeRepository(path string) (*KnowledgeRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading knowledge catalog: %w", err)
	}
	return NewKnowledgeRepositoryFromBytes(data)
}

func NewKnowledgeRepositoryFromBytes(data []byte) (*KnowledgeRepository, error) {
	var cat catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parsing knowledge catalog: %w", err)
	}

	r := &KnowledgeRepository{
		topics:          cat.Topics,
		topicIndex:      make(map[string]int, len(cat.Topics)),
		specializations: cat.Specializations,
	}

	for i, t := range cat.Topics {
		if t.ID == "" {
			return nil, fmt.Errorf("topic %d has empty id", i)
		}
		if _, dup := r.topicIndex[t.ID]; dup {
			return nil, fmt.Errorf("duplicate topic id %q", t.ID)
		}
		r.topicIndex[t.ID] = i

		seen := make(map[string]bool, len(t.Subtopics))
		for _, st := range t.Subtopics {
			if !st.Level.Valid() {
				return nil, fmt.Errorf("subtopic %s/%s has invalid level %q", t.ID, st.ID, st.Level)
			}
			if seen[st.ID] {
				return nil, fmt.Errorf("duplicate subtopic id %q in topic %q", st.ID, t.ID)
			}
			seen[st.ID] = true
			r.totalSubtopics++
		}
	}

	return r, nil
}

// Topics 按目录顺序返回全部主题
func (r *KnowledgeRepository) Topics() []model.Topic {
	return r.topics
}

// Topic 按 ID 查找主题
func (r *KnowledgeRepository) Topic(id string) (*model.Topic, bool) {
	i, ok := r.topicIndex[id]
	if !ok {
		return nil, false
	}
	return &r.topics[i], true
}

// Subtopic 按主题 ID 与子主题 ID 查找子主题
func (r *KnowledgeRepository) Subtopic(topicID, subtopicID string) (*model.Subtopic, bool) {
	t, ok := r.Topic(topicID)
	if !ok {
		return nil, false
	}
	for i := range t.Subtopics {
		if t.Subtopics[i].ID == subtopicID {
			return &t.Subtopics[i], true
		}
	}
	return nil, false
}

// Specializations 返回专业方向键到展示名的映射
func (r *KnowledgeRepository) Specializations() map[string]string {
	return r.specializations
}

// HasSpecialization 判断专业方向是否存在
func (r *KnowledgeRepository) HasSpecialization(key string) bool {
	_, ok := r.specializations[key]
	return ok
}

// TotalSubtopics 知识库中子主题总数，用于计算总体学习进度
func (r *KnowledgeRepository) TotalSubtopics() int {
	return r.totalSubtopics
}
