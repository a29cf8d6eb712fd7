package userrepo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yanqian/doctor-faq/internal/domain/faq"
)

// UserCollection is the Mongo collection holding users.
const UserCollection = "users"

type userDocument struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
}

// MongoRepository reads users from Mongo.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository constructs the repository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(UserCollection)}
}

// FindByIDs projects id and name for every listed user.
func (r *MongoRepository) FindByIDs(ctx context.Context, ids []string) ([]faq.User, error) {
	if len(ids) == 0 {
		return []faq.User{}, nil
	}
	opts := options.Find().SetProjection(bson.D{{Key: "name", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}}, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]faq.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, faq.User{ID: doc.ID, Name: doc.Name})
	}
	return out, nil
}

var _ faq.UserRepository = (*MongoRepository)(nil)
