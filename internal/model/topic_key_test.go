package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionIDRoundTrip(t *testing.T) {
	ref := QuestionRef{
		Key:   TopicKey{TopicID: "python_basics", SubtopicID: "lists"},
		Index: 2,
	}

	id := ref.EncodeID()
	assert.Equal(t, "python_basics_lists_q2", id)

	decoded, err := DecodeQuestionID(id)
	require.NoError(t, err)
	assert.Equal(t, ref, decoded)
}

func TestDecodeQuestionIDUnderscoredTopic(t *testing.T) {
	// topicID 自身含下划线，必须从末尾的 qN 段往前切
	decoded, err := DecodeQuestionID("machine_learning_basics_q1")
	require.NoError(t, err)
	assert.Equal(t, "machine_learning", decoded.Key.TopicID)
	assert.Equal(t, "basics", decoded.Key.SubtopicID)
	assert.Equal(t, 1, decoded.Index)
}

func TestDecodeQuestionIDMalformed(t *testing.T) {
	for _, id := range []string{"", "q1", "topic_q1", "topic_sub_qx", "topic_sub_1", "topic_sub_q-1"} {
		_, err := DecodeQuestionID(id)
		assert.Error(t, err, "id %q", id)
	}
}

func TestTopicKeyFormats(t *testing.T) {
	key := TopicKey{TopicID: "oop", SubtopicID: "classes"}
	assert.Equal(t, "oop_classes", key.String())
	assert.Equal(t, "oop/classes", key.ContentLink())
}

func TestScoreForMissingKey(t *testing.T) {
	var a *Assessment
	assert.Zero(t, a.ScoreFor(TopicKey{TopicID: "oop", SubtopicID: "classes"}))

	a = &Assessment{TopicScores: map[string]float64{"oop_classes": 55}}
	assert.Equal(t, 55.0, a.ScoreFor(TopicKey{TopicID: "oop", SubtopicID: "classes"}))
	assert.Zero(t, a.ScoreFor(TopicKey{TopicID: "oop", SubtopicID: "inheritance"}))
}
