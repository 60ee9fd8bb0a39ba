package repository

import (
	"context"

	"github.com/NetaKon/Real-Time-Forum/models"
)

// SortOrder is the direction of a listing.
type SortOrder int

const (
	Descending SortOrder = iota
	Ascending
)

// Sortable fields of a question listing.
const (
	SortByCreatedAt = "created_at"
	SortByTitle     = "title"
)

// ListOptions selects one page of questions. Page is zero-based.
type ListOptions struct {
	Page      int
	Limit     int
	SortField string
	SortOrder SortOrder
}

// ListQuestionsResult holds one page of questions and the count of all questions.
type ListQuestionsResult struct {
	Items []*models.Question
	Total int64
}

// QuestionRepository persists the Question aggregate. Store failures are reported
// as errorz.KindUnavailable; a missing question is never an error.
type QuestionRepository interface {
	Migrate(ctx context.Context) error
	Create(ctx context.Context, title, content string) (models.ID, error)
	GetByID(ctx context.Context, id models.ID) (*models.Question, error) // (nil, nil) when absent
	ListPage(ctx context.Context, opts ListOptions) (ListQuestionsResult, error)
	// Update sets the non-nil fields and reports whether a question matched.
	Update(ctx context.Context, id models.ID, title, content *string) (bool, error)
	Delete(ctx context.Context, id models.ID) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	// AppendAnswer atomically appends an answer and reports whether the question existed.
	AppendAnswer(ctx context.Context, id models.ID, content string) (bool, error)
}

// maxPreallocItems caps slice preallocation for a page; limit itself is unbounded.
const maxPreallocItems = 64

func normalizeListOptions(opts ListOptions) ListOptions {
	if opts.SortField != SortByTitle {
		opts.SortField = SortByCreatedAt
	}
	if opts.Page < 0 {
		opts.Page = 0
	}
	return opts
}
