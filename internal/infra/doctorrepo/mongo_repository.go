package doctorrepo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// DoctorCollection is the Mongo collection holding doctors.
const DoctorCollection = "doctors"

type doctorDocument struct {
	ID           string `bson:"_id"`
	DoctorName   string `bson:"DoctorName"`
	ProfileImage string `bson:"profileImage"`
	IsDeleted    bool   `bson:"isDeleted"`
}

// MongoRepository reads doctors from Mongo.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository constructs the repository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(DoctorCollection)}
}

// ListActiveIDs projects the ids of doctors not marked deleted.
func (r *MongoRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}).SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "isDeleted", Value: false}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []doctorDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

// FindByID fetches by _id, deleted doctors included.
func (r *MongoRepository) FindByID(ctx context.Context, id string) (faq.Doctor, bool, error) {
	var doc doctorDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return faq.Doctor{}, false, nil
	}
	if err != nil {
		return faq.Doctor{}, false, err
	}
	return doc.toDomain(), true, nil
}

// FindByIDs fetches every doctor whose id is listed.
func (r *MongoRepository) FindByIDs(ctx context.Context, ids []string) ([]faq.Doctor, error) {
	if len(ids) == 0 {
		return []faq.Doctor{}, nil
	}
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, err
	}
	var docs []doctorDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]faq.Doctor, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

func (d doctorDocument) toDomain() faq.Doctor {
	return faq.Doctor{ID: d.ID, Name: d.DoctorName, ProfileImage: d.ProfileImage, IsDeleted: d.IsDeleted}
}

var _ faq.DoctorRepository = (*MongoRepository)(nil)
