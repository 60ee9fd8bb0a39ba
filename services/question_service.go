package services

import (
	"context"
	"fmt"
	"math"

	"github.com/NetaKon/Real-Time-Forum/errorz"
	"github.com/NetaKon/Real-Time-Forum/logging"
	"github.com/NetaKon/Real-Time-Forum/models"
	"github.com/NetaKon/Real-Time-Forum/realtime"
	"github.com/NetaKon/Real-Time-Forum/repository"
)

// QuestionFields carries the decoded JSON fields of a request body. A nil value
// means the field was absent (or JSON null).
type QuestionFields struct {
	Title   any
	Content any
}

// QuestionPage is one page of a question listing.
type QuestionPage struct {
	Items   []*models.Question
	Page    int
	Limit   int
	HasNext bool
	Total   int64
}

// QuestionService defines the operations of the forum.
type QuestionService interface {
	Create(ctx context.Context, fields QuestionFields) (*models.Question, error)
	Get(ctx context.Context, rawID string) (*models.Question, error)
	List(ctx context.Context, page, limit int) (*QuestionPage, error)
	Update(ctx context.Context, rawID string, fields QuestionFields) (*models.Question, error)
	Delete(ctx context.Context, rawID string) error
	DeleteAll(ctx context.Context) (int64, error)
	// PostAnswer appends an answer and returns the question's full answer list.
	PostAnswer(ctx context.Context, rawID string, fields QuestionFields) ([]models.Answer, error)
}

type questionService struct {
	repo      repository.QuestionRepository
	publisher realtime.Publisher
}

var serviceLog = logging.For("QuestionService")

// NewQuestionService creates a new instance of QuestionService.
func NewQuestionService(repo repository.QuestionRepository, publisher realtime.Publisher) QuestionService {
	return &questionService{
		repo:      repo,
		publisher: publisher,
	}
}

func (s *questionService) Create(ctx context.Context, fields QuestionFields) (*models.Question, error) {
	title, err := expectString(fields.Title, "title")
	if err != nil {
		return nil, err
	}
	content, err := expectString(fields.Content, "content")
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, title, content)
	if err != nil {
		serviceLog.Errorf("Failed to create question: %v", err)
		return nil, fmt.Errorf("create question: %w", err)
	}
	serviceLog.Infof("Created question %s.", models.IDString(id))
	return s.fetch(ctx, id)
}

func (s *questionService) Get(ctx context.Context, rawID string) (*models.Question, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, id)
}

func (s *questionService) List(ctx context.Context, page, limit int) (*QuestionPage, error) {
	if page < 0 {
		return nil, errorz.Validation("'page' must be a non-negative integer.")
	}
	if limit <= 0 {
		return nil, errorz.Validation("'limit' must be a positive integer.")
	}
	// (page+1)*limit must fit in an int64 for the offset and has_next arithmetic.
	if int64(page) > math.MaxInt64/int64(limit)-1 {
		return nil, errorz.Validation("'page' is out of range.")
	}

	result, err := s.repo.ListPage(ctx, repository.ListOptions{
		Page:      page,
		Limit:     limit,
		SortField: repository.SortByCreatedAt,
		SortOrder: repository.Descending,
	})
	if err != nil {
		serviceLog.Errorf("Failed to list questions (page %d, limit %d): %v", page, limit, err)
		return nil, fmt.Errorf("list questions: %w", err)
	}

	return &QuestionPage{
		Items:   result.Items,
		Page:    page,
		Limit:   limit,
		HasNext: len(result.Items) == limit && int64(page+1)*int64(limit) < result.Total,
		Total:   result.Total,
	}, nil
}

func (s *questionService) Update(ctx context.Context, rawID string, fields QuestionFields) (*models.Question, error) {
	if fields.Title == nil && fields.Content == nil {
		return nil, errNoUpdateFields()
	}
	title, err := optionalString(fields.Title, "title")
	if err != nil {
		return nil, err
	}
	content, err := optionalString(fields.Content, "content")
	if err != nil {
		return nil, err
	}
	if title == nil && content == nil {
		return nil, errNoUpdateFields()
	}

	id, err := models.ParseID(rawID)
	if err != nil {
		return nil, err
	}

	matched, err := s.repo.Update(ctx, id, title, content)
	if err != nil {
		serviceLog.Errorf("Failed to update question %s: %v", rawID, err)
		return nil, fmt.Errorf("update question: %w", err)
	}
	if !matched {
		serviceLog.Warnf("Question %s not found for update.", rawID)
		return nil, errorz.ErrNotFound
	}
	return s.fetch(ctx, id)
}

func (s *questionService) Delete(ctx context.Context, rawID string) error {
	id, err := models.ParseID(rawID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		serviceLog.Errorf("Failed to delete question %s: %v", rawID, err)
		return fmt.Errorf("delete question: %w", err)
	}
	if !deleted {
		return errorz.ErrNotFound
	}
	serviceLog.Infof("Deleted question %s.", rawID)
	return nil
}

func (s *questionService) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteAll(ctx)
	if err != nil {
		serviceLog.Errorf("Failed to delete all questions: %v", err)
		return 0, fmt.Errorf("delete all questions: %w", err)
	}
	serviceLog.Infof("Deleted %d questions.", count)
	return count, nil
}

func (s *questionService) PostAnswer(ctx context.Context, rawID string, fields QuestionFields) ([]models.Answer, error) {
	id, err := models.ParseID(rawID)
	if err != nil {
		return nil, err
	}
	content, err := expectString(fields.Content, "content")
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.AppendAnswer(ctx, id, content); err != nil {
		serviceLog.Errorf("Failed to append answer to question %s: %v", rawID, err)
		return nil, fmt.Errorf("append answer: %w", err)
	}
	question, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifyNewAnswer(ctx, question)
	return question.Answers, nil
}

// notifyNewAnswer pushes the question's answers to its room. Failures are logged only;
// the answer is already stored.
func (s *questionService) notifyNewAnswer(ctx context.Context, question *models.Question) {
	if s.publisher == nil {
		return
	}
	room := models.IDString(question.ID)
	event := models.AnswerEvent{
		QuestionID: room,
		Answers:    models.AnswersToBoundary(question.Answers),
	}
	if err := s.publisher.Publish(ctx, room, realtime.EventNewAnswer, event); err != nil {
		serviceLog.Warnf("Failed to publish %s for question %s: %v", realtime.EventNewAnswer, room, err)
	}
}

func (s *questionService) fetch(ctx context.Context, id models.ID) (*models.Question, error) {
	question, err := s.repo.GetByID(ctx, id)
	if err != nil {
		serviceLog.Errorf("Failed to get question %s: %v", models.IDString(id), err)
		return nil, fmt.Errorf("get question: %w", err)
	}
	if question == nil { // Repository returns (nil, nil) for not found
		return nil, errorz.ErrNotFound
	}
	return question, nil
}

func errNoUpdateFields() error {
	return errorz.Validation("At least one field (title or content) is required.")
}
