package models

import "time"

// TimeLayout renders timestamps as ISO-8601 with microseconds and a numeric offset.
const TimeLayout = "2006-01-02T15:04:05.000000-07:00"

// QuestionRecord is the wire form of a Question.
type QuestionRecord struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	CreatedAt string         `json:"created_at"`
	Answers   []AnswerRecord `json:"answers"`
}

// AnswerRecord is the wire form of an Answer.
type AnswerRecord struct {
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// AnswerEvent is the payload pushed to a question's room when an answer is posted.
type AnswerEvent struct {
	QuestionID string         `json:"question_id"`
	Answers    []AnswerRecord `json:"answers"`
}

// FormatTime renders t in UTC with TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// QuestionToBoundary maps a Question to its wire form.
func QuestionToBoundary(q *Question) QuestionRecord {
	return QuestionRecord{
		ID:        IDString(q.ID),
		Title:     q.Title,
		Content:   q.Content,
		CreatedAt: FormatTime(q.CreatedAt),
		Answers:   AnswersToBoundary(q.Answers),
	}
}

// QuestionsToBoundary maps a page of questions, preserving order.
func QuestionsToBoundary(questions []*Question) []QuestionRecord {
	out := make([]QuestionRecord, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionToBoundary(q))
	}
	return out
}

// AnswerToBoundary maps an Answer to its wire form.
func AnswerToBoundary(a Answer) AnswerRecord {
	return AnswerRecord{
		Content:   a.Content,
		CreatedAt: FormatTime(a.CreatedAt),
	}
}

// AnswersToBoundary never returns nil, so an empty list encodes as [].
func AnswersToBoundary(answers []Answer) []AnswerRecord {
	out := make([]AnswerRecord, 0, len(answers))
	for _, a := range answers {
		out = append(out, AnswerToBoundary(a))
	}
	return out
}
