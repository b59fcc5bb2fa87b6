package model

import (
	"fmt"
	"strconv"
	"strings"
)

// TopicKey 结构化的主题键，替代原先到处拼接的 "topicID_subtopicID" 字符串
type TopicKey struct {
	TopicID    string `json:"topic_id"`
	SubtopicID string `json:"subtopic_id"`
}

// String 返回兼容持久化格式的 "topicID_subtopicID" 形式，
// 作为 topic_scores / studied_topics 等映射的键
func (k TopicKey) String() string {
	return k.TopicID + "_" + k.SubtopicID
}

// ContentLink 返回 "topicID/subtopicID" 形式的内容链接
func (k TopicKey) ContentLink() string {
	return k.TopicID + "/" + k.SubtopicID
}

// QuestionRef 诊断测试题目的结构化引用，编码进题目 ID 以便提交时无需查表还原
type QuestionRef struct {
	Key   TopicKey
	Index int
}

// EncodeID 生成 "topicID_subtopicID_qN" 形式的题目 ID
func (r QuestionRef) EncodeID() string {
	return fmt.Sprintf("%s_%s_q%d", r.Key.TopicID, r.Key.SubtopicID, r.Index)
}

// DecodeQuestionID 解析诊断题目 ID。topicID 自身可以包含下划线，
// 因此从末尾定位 "qN" 段：其前一段为 subtopicID，再往前整体为 topicID。
// subtopicID 含下划线时此切分存在歧义，批改时应改用目录反查。
func DecodeQuestionID(id string) (QuestionRef, error) {
	parts := strings.Split(id, "_")
	for i := len(parts) - 1; i >= 2; i-- {
		if !strings.HasPrefix(parts[i], "q") {
			continue
		}
		n, err := strconv.Atoi(parts[i][1:])
		if err != nil || n < 0 {
			continue
		}
		return QuestionRef{
			Key: TopicKey{
				TopicID:    strings.Join(parts[:i-1], "_"),
				SubtopicID: parts[i-1],
			},
			Index: n,
		}, nil
	}
	return QuestionRef{}, fmt.Errorf("malformed question id %q", id)
}
