package group

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dErrors "mngkeeper/pkg/domain-errors"
)

// Store persists group records. Names are unique per domain.
type Store interface {
	Create(ctx context.Context, group *Group) error
	GetByID(ctx context.Context, domainID, id string) (*Group, error)
	GetByName(ctx context.Context, domainID, name string) (*Group, error)
	ListByDomain(ctx context.Context, domainID string) ([]*Group, error)
	Update(ctx context.Context, group *Group) error
	Delete(ctx context.Context, domainID, id string) error
}

// MemoryStore is the in-memory Store used in tests.
type MemoryStore struct {
	mu     sync.RWMutex
	groups map[string]*Group
	byName map[string]string // domainID+"/"+name -> id
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		groups: make(map[string]*Group),
		byName: make(map[string]string),
	}
}

func nameKey(domainID, name string) string { return domainID + "/" + name }

func copyGroup(g *Group) *Group {
	c := *g
	c.MemberIDs = append([]string(nil), g.MemberIDs...)
	return &c
}

func (s *MemoryStore) Create(_ context.Context, group *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := nameKey(group.DomainID, group.Name)
	if _, exists := s.byName[key]; exists {
		return dErrors.New(dErrors.CodeConflict, "group name already in use in domain")
	}
	s.groups[group.ID] = copyGroup(group)
	s.byName[key] = group.ID
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, domainID, id string) (*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok || g.DomainID != domainID {
		return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
	}
	return copyGroup(g), nil
}

func (s *MemoryStore) GetByName(_ context.Context, domainID, name string) (*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byName[nameKey(domainID, name)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
	}
	return copyGroup(s.groups[id]), nil
}

func (s *MemoryStore) ListByDomain(_ context.Context, domainID string) ([]*Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Group, 0)
	for _, g := range s.groups {
		if g.DomainID == domainID {
			out = append(out, copyGroup(g))
		}
	}
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, group *Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.groups[group.ID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "group not found")
	}
	if old.Name != group.Name {
		newKey := nameKey(group.DomainID, group.Name)
		if _, exists := s.byName[newKey]; exists {
			return dErrors.New(dErrors.CodeConflict, "group name already in use in domain")
		}
		delete(s.byName, nameKey(old.DomainID, old.Name))
		s.byName[newKey] = group.ID
	}
	s.groups[group.ID] = copyGroup(group)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, domainID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[id]
	if !ok || g.DomainID != domainID {
		return dErrors.New(dErrors.CodeNotFound, "group not found")
	}
	delete(s.byName, nameKey(g.DomainID, g.Name))
	delete(s.groups, id)
	return nil
}

const groupsCollection = "groups"

// MongoStore persists groups in the primary document database with a unique
// (domainId, name) index.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates the store and ensures its indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	collection := db.Collection(groupsCollection)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "domainId", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create group indexes")
	}
	return &MongoStore{collection: collection}, nil
}

func (s *MongoStore) Create(ctx context.Context, group *Group) error {
	_, err := s.collection.InsertOne(ctx, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dErrors.New(dErrors.CodeConflict, "group name already in use in domain")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert group")
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*Group, error) {
	var g Group
	err := s.collection.FindOne(ctx, filter).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dErrors.New(dErrors.CodeNotFound, "group not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find group")
	}
	return &g, nil
}

func (s *MongoStore) GetByID(ctx context.Context, domainID, id string) (*Group, error) {
	return s.findOne(ctx, bson.M{"_id": id, "domainId": domainID})
}

func (s *MongoStore) GetByName(ctx context.Context, domainID, name string) (*Group, error) {
	return s.findOne(ctx, bson.M{"domainId": domainID, "name": name})
}

func (s *MongoStore) ListByDomain(ctx context.Context, domainID string) ([]*Group, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"domainId": domainID},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list groups")
	}
	defer cursor.Close(ctx)

	var out []*Group
	if err := cursor.All(ctx, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode groups")
	}
	return out, nil
}

func (s *MongoStore) Update(ctx context.Context, group *Group) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": group.ID, "domainId": group.DomainID}, group)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dErrors.New(dErrors.CodeConflict, "group name already in use in domain")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "update group")
	}
	if result.MatchedCount == 0 {
		return dErrors.New(dErrors.CodeNotFound, "group not found")
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, domainID, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "domainId": domainID})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete group")
	}
	if result.DeletedCount == 0 {
		return dErrors.New(dErrors.CodeNotFound, "group not found")
	}
	return nil
}
