package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/NetaKon/Real-Time-Forum/errorz"
	"github.com/NetaKon/Real-Time-Forum/logging"
	"github.com/NetaKon/Real-Time-Forum/models"
)

const questionsCollection = "questions"

type mongoQuestionRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoQuestionRepository creates a QuestionRepository storing each Question as one
// document with its answers embedded.
func NewMongoQuestionRepository(db *mongo.Database, timeout time.Duration) QuestionRepository {
	return &mongoQuestionRepository{coll: db.Collection(questionsCollection), timeout: timeout}
}

var mongoLog = logging.For("MongoQuestionRepository")

func (r *mongoQuestionRepository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return errorz.Unavailable("create questions index", err)
	}
	mongoLog.Info("Questions index ensured.")
	return nil
}

func (r *mongoQuestionRepository) Create(ctx context.Context, title, content string) (models.ID, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	doc := models.Question{
		ID:        models.NewID(),
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
		Answers:   []models.Answer{},
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		mongoLog.Errorf("Failed to insert question: %v", err)
		return doc.ID, errorz.Unavailable("create question", err)
	}
	return doc.ID, nil
}

func (r *mongoQuestionRepository) GetByID(ctx context.Context, id models.ID) (*models.Question, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var q models.Question
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&q)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		mongoLog.Errorf("Failed to find question %s: %v", models.IDString(id), err)
		return nil, errorz.Unavailable("get question", err)
	}
	normalize(&q)
	return &q, nil
}

func (r *mongoQuestionRepository) ListPage(ctx context.Context, opts ListOptions) (ListQuestionsResult, error) {
	opts = normalizeListOptions(opts)
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	dir := -1
	if opts.SortOrder == Ascending {
		dir = 1
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: opts.SortField, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(opts.Page) * int64(opts.Limit)).
		SetLimit(int64(opts.Limit))

	cur, err := r.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		mongoLog.Errorf("Failed to list questions: %v", err)
		return ListQuestionsResult{}, errorz.Unavailable("list questions", err)
	}
	defer cur.Close(ctx)

	items := make([]*models.Question, 0, min(opts.Limit, maxPreallocItems))
	for cur.Next(ctx) {
		var q models.Question
		if err := cur.Decode(&q); err != nil {
			return ListQuestionsResult{}, errorz.Unavailable("decode question", err)
		}
		normalize(&q)
		items = append(items, &q)
	}
	if err := cur.Err(); err != nil {
		return ListQuestionsResult{}, errorz.Unavailable("list questions", err)
	}

	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		mongoLog.Errorf("Failed to count questions: %v", err)
		return ListQuestionsResult{}, errorz.Unavailable("count questions", err)
	}
	return ListQuestionsResult{Items: items, Total: total}, nil
}

func (r *mongoQuestionRepository) Update(ctx context.Context, id models.ID, title, content *string) (bool, error) {
	set := bson.M{}
	if title != nil {
		set["title"] = *title
	}
	if content != nil {
		set["content"] = *content
	}
	if len(set) == 0 {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		mongoLog.Errorf("Failed to update question %s: %v", models.IDString(id), err)
		return false, errorz.Unavailable("update question", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoQuestionRepository) Delete(ctx context.Context, id models.ID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		mongoLog.Errorf("Failed to delete question %s: %v", models.IDString(id), err)
		return false, errorz.Unavailable("delete question", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoQuestionRepository) DeleteAll(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.D{})
	if err != nil {
		mongoLog.Errorf("Failed to delete all questions: %v", err)
		return 0, errorz.Unavailable("delete all questions", err)
	}
	mongoLog.Infof("Deleted %d questions.", res.DeletedCount)
	return res.DeletedCount, nil
}

func (r *mongoQuestionRepository) AppendAnswer(ctx context.Context, id models.ID, content string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	answer := models.Answer{Content: content, CreatedAt: time.Now().UTC()}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"answers": answer}})
	if err != nil {
		mongoLog.Errorf("Failed to append answer to question %s: %v", models.IDString(id), err)
		return false, errorz.Unavailable("append answer", err)
	}
	return res.ModifiedCount > 0, nil
}

// normalize converts decoded timestamps to UTC and replaces a null answers array.
func normalize(q *models.Question) {
	q.CreatedAt = q.CreatedAt.UTC()
	if q.Answers == nil {
		q.Answers = []models.Answer{}
	}
	for i := range q.Answers {
		q.Answers[i].CreatedAt = q.Answers[i].CreatedAt.UTC()
	}
}
