package audit

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	dErrors "mngkeeper/pkg/domain-errors"
)

const auditCollection = "auditLogs"

// MongoStore persists audit entries in the primary document database. The
// event id doubles as the document id, so a redelivered event collides with
// its earlier record instead of duplicating it.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates the store over the auditLogs collection.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection(auditCollection)}
}

func (s *MongoStore) Insert(ctx context.Context, entry *Entry) error {
	_, err := s.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert audit entry")
	}
	return nil
}
