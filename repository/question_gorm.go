package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/NetaKon/Real-Time-Forum/errorz"
	"github.com/NetaKon/Real-Time-Forum/logging"
	"github.com/NetaKon/Real-Time-Forum/models"
)

// questionRow is the SQL shape of a Question; answers live in their own table.
type questionRow struct {
	ID        string      `gorm:"primaryKey;size:24"`
	Title     string      `gorm:"not null"`
	Content   string      `gorm:"type:text;not null"`
	CreatedAt time.Time   `gorm:"index;not null"`
	Answers   []answerRow `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE;"`
}

func (questionRow) TableName() string {
	return "questions"
}

// answerRow keeps insertion order through its autoincrement ID.
type answerRow struct {
	ID         uint      `gorm:"primaryKey"`
	QuestionID string    `gorm:"size:24;index;not null"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (answerRow) TableName() string {
	return "answers"
}

type gormQuestionRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewGormQuestionRepository creates a QuestionRepository backed by a SQL database.
// Every call is bounded by timeout.
func NewGormQuestionRepository(db *gorm.DB, timeout time.Duration) QuestionRepository {
	return &gormQuestionRepository{db: db, timeout: timeout}
}

var gormLog = logging.For("QuestionRepository")

func (r *gormQuestionRepository) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	return r.db.WithContext(ctx), cancel
}

func (r *gormQuestionRepository) Migrate(ctx context.Context) error {
	db, cancel := r.session(ctx)
	defer cancel()
	if err := db.AutoMigrate(&questionRow{}, &answerRow{}); err != nil {
		return errorz.Unavailable("migrate questions", err)
	}
	gormLog.Info("Database migration completed.")
	return nil
}

func (r *gormQuestionRepository) Create(ctx context.Context, title, content string) (models.ID, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	id := models.NewID()
	row := questionRow{
		ID:        models.IDString(id),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		gormLog.Errorf("Failed to create question: %v", err)
		return id, errorz.Unavailable("create question", err)
	}
	gormLog.Debugf("Created question %s.", row.ID)
	return id, nil
}

func (r *gormQuestionRepository) GetByID(ctx context.Context, id models.ID) (*models.Question, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var row questionRow
	err := db.Preload("Answers", orderAnswers).First(&row, "id = ?", models.IDString(id)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		gormLog.Errorf("Failed to retrieve question %s: %v", models.IDString(id), err)
		return nil, errorz.Unavailable("get question", err)
	}
	return row.toModel()
}

func (r *gormQuestionRepository) ListPage(ctx context.Context, opts ListOptions) (ListQuestionsResult, error) {
	opts = normalizeListOptions(opts)
	db, cancel := r.session(ctx)
	defer cancel()

	var total int64
	if err := db.Model(&questionRow{}).Count(&total).Error; err != nil {
		gormLog.Errorf("Failed to count questions: %v", err)
		return ListQuestionsResult{}, errorz.Unavailable("count questions", err)
	}

	dir := "DESC"
	if opts.SortOrder == Ascending {
		dir = "ASC"
	}

	var rows []questionRow
	err := db.Preload("Answers", orderAnswers).
		Order(opts.SortField + " " + dir).
		Order("id " + dir).
		Offset(opts.Page * opts.Limit).
		Limit(opts.Limit).
		Find(&rows).Error
	if err != nil {
		gormLog.Errorf("Failed to list questions (page %d, limit %d): %v", opts.Page, opts.Limit, err)
		return ListQuestionsResult{}, errorz.Unavailable("list questions", err)
	}

	items := make([]*models.Question, 0, len(rows))
	for i := range rows {
		q, err := rows[i].toModel()
		if err != nil {
			return ListQuestionsResult{}, err
		}
		items = append(items, q)
	}
	return ListQuestionsResult{Items: items, Total: total}, nil
}

func (r *gormQuestionRepository) Update(ctx context.Context, id models.ID, title, content *string) (bool, error) {
	changes := map[string]interface{}{}
	if title != nil {
		changes["title"] = *title
	}
	if content != nil {
		changes["content"] = *content
	}
	if len(changes) == 0 {
		return false, nil
	}

	db, cancel := r.session(ctx)
	defer cancel()

	// RowsAffected counts matched rows on sqlite and postgres, even when values are unchanged.
	res := db.Model(&questionRow{}).Where("id = ?", models.IDString(id)).Updates(changes)
	if res.Error != nil {
		gormLog.Errorf("Failed to update question %s: %v", models.IDString(id), res.Error)
		return false, errorz.Unavailable("update question", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *gormQuestionRepository) Delete(ctx context.Context, id models.ID) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", models.IDString(id)).Delete(&answerRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", models.IDString(id)).Delete(&questionRow{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		gormLog.Errorf("Failed to delete question %s: %v", models.IDString(id), err)
		return false, errorz.Unavailable("delete question", err)
	}
	return deleted > 0, nil
}

func (r *gormQuestionRepository) DeleteAll(ctx context.Context) (int64, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	var deleted int64
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&answerRow{}).Error; err != nil {
			return err
		}
		res := tx.Where("1 = 1").Delete(&questionRow{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		gormLog.Errorf("Failed to delete all questions: %v", err)
		return 0, errorz.Unavailable("delete all questions", err)
	}
	gormLog.Infof("Deleted %d questions.", deleted)
	return deleted, nil
}

func (r *gormQuestionRepository) AppendAnswer(ctx context.Context, id models.ID, content string) (bool, error) {
	db, cancel := r.session(ctx)
	defer cancel()

	appended := false
	err := db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&questionRow{}).Where("id = ?", models.IDString(id)).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		row := answerRow{
			QuestionID: models.IDString(id),
			Content:    content,
			CreatedAt:  time.Now().UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		appended = true
		return nil
	})
	if err != nil {
		gormLog.Errorf("Failed to append answer to question %s: %v", models.IDString(id), err)
		return false, errorz.Unavailable("append answer", err)
	}
	return appended, nil
}

func orderAnswers(db *gorm.DB) *gorm.DB {
	return db.Order("answers.id ASC")
}

func (row *questionRow) toModel() (*models.Question, error) {
	id, err := models.ParseID(row.ID)
	if err != nil {
		return nil, &errorz.Error{Kind: errorz.KindInternal, Message: "corrupt question id " + row.ID, Err: err}
	}
	q := &models.Question{
		ID:        id,
		Title:     row.Title,
		Content:   row.Content,
		CreatedAt: row.CreatedAt.UTC(),
		Answers:   make([]models.Answer, 0, len(row.Answers)),
	}
	for _, a := range row.Answers {
		q.Answers = append(q.Answers, models.Answer{Content: a.Content, CreatedAt: a.CreatedAt.UTC()})
	}
	return q, nil
}
