package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mngkeeper/internal/domain/models"
	dErrors "mngkeeper/pkg/domain-errors"
)

const domainsCollection = "domains"

// MongoStore persists domain records in the primary document database. A
// unique index on nameKey (the normalized name) enforces name uniqueness at
// the storage layer, so concurrent creates race safely.
type MongoStore struct {
	collection *mongo.Collection
}

// mongoDomain wraps the entity with the indexed normalized-name key.
type mongoDomain struct {
	models.Domain `bson:",inline"`
	NameKey       string `bson:"nameKey"`
}

// NewMongoStore creates the store and ensures its indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	collection := db.Collection(domainsCollection)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "nameKey", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "realmName", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create domain indexes")
	}
	return &MongoStore{collection: collection}, nil
}

// CreateIfNameAvailable inserts the domain; the unique nameKey index turns a
// duplicate name into a conflict.
func (s *MongoStore) CreateIfNameAvailable(ctx context.Context, domain *models.Domain) error {
	doc := mongoDomain{Domain: *domain, NameKey: models.Normalize(domain.Name)}
	_, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dErrors.New(dErrors.CodeConflict, "domain name already in use")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert domain")
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*models.Domain, error) {
	var doc mongoDomain
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find domain")
	}
	return &doc.Domain, nil
}

// GetByID returns the domain with the given id.
func (s *MongoStore) GetByID(ctx context.Context, id string) (*models.Domain, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

// GetByName returns the domain whose normalized name matches.
func (s *MongoStore) GetByName(ctx context.Context, name string) (*models.Domain, error) {
	return s.findOne(ctx, bson.M{"nameKey": models.Normalize(name)})
}

// GetByRealm returns the domain provisioned under the given realm name.
func (s *MongoStore) GetByRealm(ctx context.Context, realmName string) (*models.Domain, error) {
	return s.findOne(ctx, bson.M{"realmName": realmName})
}

// List returns domains matching the filter, excluding deleted ones unless
// the filter names a status.
func (s *MongoStore) List(ctx context.Context, filter ListFilter) ([]*models.Domain, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	} else {
		query["status"] = bson.M{"$ne": models.StatusDeleted}
	}
	if filter.NamePrefix != "" {
		query["nameKey"] = bson.M{"$regex": "^" + models.Normalize(filter.NamePrefix)}
	}

	cursor, err := s.collection.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "nameKey", Value: 1}}))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list domains")
	}
	defer cursor.Close(ctx)

	var docs []mongoDomain
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode domains")
	}
	out := make([]*models.Domain, len(docs))
	for i := range docs {
		out[i] = &docs[i].Domain
	}
	return out, nil
}

// Update replaces the stored domain document.
func (s *MongoStore) Update(ctx context.Context, domain *models.Domain) error {
	doc := mongoDomain{Domain: *domain, NameKey: models.Normalize(domain.Name)}
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": domain.ID}, doc)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "update domain")
	}
	if result.MatchedCount == 0 {
		return dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	return nil
}

// Delete removes the domain record.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete domain")
	}
	if result.DeletedCount == 0 {
		return dErrors.New(dErrors.CodeNotFound, "domain not found")
	}
	return nil
}
