package model

// Level 难度等级，同时用于子主题难度和学生综合水平
type Level string

const (
	LevelUnknown      Level = "unknown"
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

// Valid reports whether l is one of the three catalog difficulty levels.
func (l Level) Valid() bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// Question 知识库中的选择题
// swagger:model
type Question struct {
	Text        string   `yaml:"text" json:"text"`
	Options     []string `yaml:"options" json:"options"`
	Correct     int      `yaml:"correct" json:"correct"`
	Explanation string   `yaml:"explanation" json:"explanation"`
}

// Subtopic 知识库中的子主题：理论内容、练习题和按专业方向的应用说明
// swagger:model
type Subtopic struct {
	ID              string            `yaml:"id" json:"id"`
	Name            string            `yaml:"name" json:"name"`
	Level           Level             `yaml:"level" json:"level"`
	Content         string            `yaml:"content" json:"content"`
	Questions       []Question        `yaml:"questions" json:"questions"`
	Specializations map[string]string `yaml:"specializations" json:"specializations"`
	Related         []string          `yaml:"related" json:"related,omitempty"`
	Projects        map[string]string `yaml:"projects" json:"projects,omitempty"`
}

// Topic 知识库中的主题，子主题保持目录定义顺序
// swagger:model
type Topic struct {
	ID        string     `yaml:"id" json:"id"`
	Name      string     `yaml:"name" json:"name"`
	Subtopics []Subtopic `yaml:"subtopics" json:"subtopics"`
}
