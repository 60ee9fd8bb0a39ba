package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetaKon/Real-Time-Forum/errorz"
)

func TestParseID(t *testing.T) {
	t.Run("round trips a generated id", func(t *testing.T) {
		id := NewID()
		parsed, err := ParseID(IDString(id))
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})

	for _, raw := range []string{"", "123", "not-an-object-id", "zzzzzzzzzzzzzzzzzzzzzzzz", "507f1f77bcf86cd7994390110", "507f1f77bcf86cd79943901"} {
		t.Run("rejects "+raw, func(t *testing.T) {
			_, err := ParseID(raw)
			assert.True(t, errors.Is(err, errorz.ErrInvalidID))
			assert.Equal(t, errorz.KindInvalidID, errorz.KindOf(err))
		})
	}
}

func TestQuestionToBoundary(t *testing.T) {
	id, err := ParseID("507f1f77bcf86cd799439011")
	require.NoError(t, err)
	created := time.Date(2024, 3, 1, 12, 30, 0, 123456000, time.UTC)

	q := &Question{
		ID:        id,
		Title:     "T",
		Content:   "C",
		CreatedAt: created,
		Answers: []Answer{
			{Content: "A1", CreatedAt: created.Add(time.Minute)},
		},
	}

	rec := QuestionToBoundary(q)
	assert.Equal(t, "507f1f77bcf86cd799439011", rec.ID)
	assert.Equal(t, "2024-03-01T12:30:00.123456+00:00", rec.CreatedAt)
	require.Len(t, rec.Answers, 1)
	assert.Equal(t, "A1", rec.Answers[0].Content)
	assert.Equal(t, "2024-03-01T12:31:00.123456+00:00", rec.Answers[0].CreatedAt)
}

func TestAnswersToBoundaryEncodesEmptyList(t *testing.T) {
	rec := QuestionToBoundary(&Question{ID: NewID(), Title: "T", Content: "C", CreatedAt: time.Now()})

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"answers":[]`)
}

func TestFormatTimeConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2024, 3, 1, 14, 0, 0, 0, loc)
	assert.Equal(t, "2024-03-01T12:00:00.000000+00:00", FormatTime(ts))
}
