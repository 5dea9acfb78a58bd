package user

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	dErrors "mngkeeper/pkg/domain-errors"
)

// Store persists user records. Usernames and email addresses are unique per
// domain.
type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, domainID, id string) (*User, error)
	GetByUsername(ctx context.Context, domainID, username string) (*User, error)
	ListByDomain(ctx context.Context, domainID string) ([]*User, error)
	CountByDomain(ctx context.Context, domainID string) (int, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, domainID, id string) error
}

// MemoryStore is the in-memory Store used in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	users      map[string]*User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      make(map[string]*User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func usernameKey(domainID, username string) string {
	return domainID + "/" + strings.ToLower(username)
}

func emailKey(domainID, email string) string {
	return domainID + "/" + strings.ToLower(email)
}

func copyUser(u *User) *User {
	c := *u
	return &c
}

func (s *MemoryStore) Create(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uKey := usernameKey(u.DomainID, u.Username)
	if _, exists := s.byUsername[uKey]; exists {
		return dErrors.New(dErrors.CodeConflict, "username already in use in domain")
	}
	eKey := emailKey(u.DomainID, u.Email)
	if _, exists := s.byEmail[eKey]; exists {
		return dErrors.New(dErrors.CodeConflict, "email already in use in domain")
	}
	s.users[u.ID] = copyUser(u)
	s.byUsername[uKey] = u.ID
	s.byEmail[eKey] = u.ID
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, domainID, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.DomainID != domainID {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetByUsername(_ context.Context, domainID, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[usernameKey(domainID, username)]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return copyUser(s.users[id]), nil
}

func (s *MemoryStore) ListByDomain(_ context.Context, domainID string) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*User, 0)
	for _, u := range s.users {
		if u.DomainID == domainID {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (s *MemoryStore) CountByDomain(_ context.Context, domainID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, u := range s.users {
		if u.DomainID == domainID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Update(_ context.Context, u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.users[u.ID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if !strings.EqualFold(old.Email, u.Email) {
		eKey := emailKey(u.DomainID, u.Email)
		if _, exists := s.byEmail[eKey]; exists {
			return dErrors.New(dErrors.CodeConflict, "email already in use in domain")
		}
		delete(s.byEmail, emailKey(old.DomainID, old.Email))
		s.byEmail[eKey] = u.ID
	}
	s.users[u.ID] = copyUser(u)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, domainID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DomainID != domainID {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	delete(s.byUsername, usernameKey(u.DomainID, u.Username))
	delete(s.byEmail, emailKey(u.DomainID, u.Email))
	delete(s.users, id)
	return nil
}

const usersCollection = "users"

// MongoStore persists users in the primary document database with unique
// (domainId, username) and (domainId, email) indexes.
type MongoStore struct {
	collection *mongo.Collection
}

// NewMongoStore creates the store and ensures its indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	collection := db.Collection(usersCollection)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "domainId", Value: 1}, {Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "domainId", Value: 1}, {Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "create user indexes")
	}
	return &MongoStore{collection: collection}, nil
}

func (s *MongoStore) Create(ctx context.Context, u *User) error {
	_, err := s.collection.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dErrors.New(dErrors.CodeConflict, "username or email already in use in domain")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "insert user")
	}
	return nil
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	err := s.collection.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "find user")
	}
	return &u, nil
}

func (s *MongoStore) GetByID(ctx context.Context, domainID, id string) (*User, error) {
	return s.findOne(ctx, bson.M{"_id": id, "domainId": domainID})
}

func (s *MongoStore) GetByUsername(ctx context.Context, domainID, username string) (*User, error) {
	return s.findOne(ctx, bson.M{"domainId": domainID, "username": username})
}

func (s *MongoStore) ListByDomain(ctx context.Context, domainID string) ([]*User, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"domainId": domainID},
		options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "list users")
	}
	defer cursor.Close(ctx)

	var out []*User
	if err := cursor.All(ctx, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "decode users")
	}
	return out, nil
}

func (s *MongoStore) CountByDomain(ctx context.Context, domainID string) (int, error) {
	count, err := s.collection.CountDocuments(ctx, bson.M{"domainId": domainID})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "count users")
	}
	return int(count), nil
}

func (s *MongoStore) Update(ctx context.Context, u *User) error {
	result, err := s.collection.ReplaceOne(ctx, bson.M{"_id": u.ID, "domainId": u.DomainID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return dErrors.New(dErrors.CodeConflict, "email already in use in domain")
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "update user")
	}
	if result.MatchedCount == 0 {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, domainID, id string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": id, "domainId": domainID})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "delete user")
	}
	if result.DeletedCount == 0 {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return nil
}
