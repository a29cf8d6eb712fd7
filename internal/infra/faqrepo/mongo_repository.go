package faqrepo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// QuestionCollection is the Mongo collection holding questions.
const QuestionCollection = "faqs"

type answerDocument struct {
	DoctorID string `bson:"doctorId"`
	Answer   string `bson:"answer"`
}

type questionDocument struct {
	ID         string           `bson:"_id"`
	Question   string           `bson:"question"`
	UserID     string           `bson:"userId"`
	DoctorIDs  []string         `bson:"doctorIds"`
	Answers    []answerDocument `bson:"answers"`
	IsDeleted  bool             `bson:"isDeleted"`
	Status     int              `bson:"status"`
	ModifiedBy string           `bson:"modifiedBy,omitempty"`
	ModifiedOn *time.Time       `bson:"modifiedOn,omitempty"`
	CreatedOn  time.Time        `bson:"createdOn"`
}

// MongoRepository implements faq.QuestionRepository on a Mongo collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository constructs the repository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(QuestionCollection)}
}

// Create inserts a new question document.
func (r *MongoRepository) Create(ctx context.Context, q faq.Question) error {
	_, err := r.coll.InsertOne(ctx, toDocument(q))
	return err
}

// FindByID fetches by _id.
func (r *MongoRepository) FindByID(ctx context.Context, id string) (faq.Question, bool, error) {
	var doc questionDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	return decodeResult(doc, err)
}

// Find lists questions newest first.
func (r *MongoRepository) Find(ctx context.Context, filter faq.QuestionFilter, page faq.Page) ([]faq.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdOn", Value: -1}, {Key: "_id", Value: -1}})
	if page.Limit > 0 {
		opts.SetLimit(int64(page.Limit))
	}
	if page.Skip > 0 {
		opts.SetSkip(int64(page.Skip))
	}
	cursor, err := r.coll.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		return nil, err
	}
	var docs []questionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]faq.Question, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fromDocument(doc))
	}
	return out, nil
}

// Count returns the number of questions matching filter.
func (r *MongoRepository) Count(ctx context.Context, filter faq.QuestionFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, buildFilter(filter))
}

// AppendAnswer pushes the answer and returns the updated document.
func (r *MongoRepository) AppendAnswer(ctx context.Context, id string, answer faq.Answer) (faq.Question, bool, error) {
	update := bson.D{{Key: "$push", Value: bson.D{{Key: "answers", Value: answerDocument{DoctorID: answer.DoctorID, Answer: answer.Answer}}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc questionDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&doc)
	return decodeResult(doc, err)
}

// SoftDelete sets the deleted flag and returns the document before the update.
func (r *MongoRepository) SoftDelete(ctx context.Context, id, modifiedBy string, modifiedOn time.Time) (faq.Question, bool, error) {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "isDeleted", Value: true},
		{Key: "modifiedBy", Value: modifiedBy},
		{Key: "modifiedOn", Value: modifiedOn},
	}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var doc questionDocument
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, opts).Decode(&doc)
	return decodeResult(doc, err)
}

func buildFilter(filter faq.QuestionFilter) bson.D {
	out := bson.D{}
	if filter.ExcludeDeleted {
		out = append(out, bson.E{Key: "isDeleted", Value: false})
	}
	if filter.Status != nil {
		out = append(out, bson.E{Key: "status", Value: int(*filter.Status)})
	}
	if filter.AskingUserID != "" {
		out = append(out, bson.E{Key: "userId", Value: filter.AskingUserID})
	}
	return out
}

func decodeResult(doc questionDocument, err error) (faq.Question, bool, error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return faq.Question{}, false, nil
	}
	if err != nil {
		return faq.Question{}, false, err
	}
	return fromDocument(doc), true, nil
}

func toDocument(q faq.Question) questionDocument {
	answers := make([]answerDocument, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, answerDocument{DoctorID: a.DoctorID, Answer: a.Answer})
	}
	return questionDocument{
		ID:         q.ID,
		Question:   q.QuestionText,
		UserID:     q.AskingUserID,
		DoctorIDs:  nonNilStrings(q.EligibleDoctorIDs),
		Answers:    answers,
		IsDeleted:  q.IsDeleted,
		Status:     int(q.Status),
		ModifiedBy: q.ModifiedBy,
		ModifiedOn: q.ModifiedOn,
		CreatedOn:  q.CreatedOn,
	}
}

func fromDocument(doc questionDocument) faq.Question {
	answers := make([]faq.Answer, 0, len(doc.Answers))
	for _, a := range doc.Answers {
		answers = append(answers, faq.Answer{DoctorID: a.DoctorID, Answer: a.Answer})
	}
	return faq.Question{
		ID:                doc.ID,
		QuestionText:      doc.Question,
		AskingUserID:      doc.UserID,
		EligibleDoctorIDs: nonNilStrings(doc.DoctorIDs),
		Answers:           answers,
		IsDeleted:         doc.IsDeleted,
		Status:            faq.Status(doc.Status),
		ModifiedBy:        doc.ModifiedBy,
		ModifiedOn:        doc.ModifiedOn,
		CreatedOn:         doc.CreatedOn,
	}
}

var _ faq.QuestionRepository = (*MongoRepository)(nil)
