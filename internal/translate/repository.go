package translate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("translation not found")

// Repository defines persistence operations for translations
type Repository interface {
	Create(ctx context.Context, t *Translation) error
	GetByID(ctx context.Context, id string) (*Translation, error)
	ListByUser(ctx context.Context, userID string) ([]*Translation, error)
	ListPublic(ctx context.Context) ([]*Translation, error)
	Update(ctx context.Context, t *Translation) error
	CountByUser(ctx context.Context, userID string) (int64, error)
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, t *Translation) error {
	now := time.Now().UTC()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Visibility == "" {
		t.Visibility = VisibilityPrivate
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, t)
	return err
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*Translation, error) {
	var t Translation
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string) ([]*Translation, error) {
	return r.list(ctx, bson.M{"userId": userID})
}

func (r *MongoRepository) ListPublic(ctx context.Context) ([]*Translation, error) {
	return r.list(ctx, bson.M{"visibility": VisibilityPublic})
}

func (r *MongoRepository) list(ctx context.Context, filter bson.M) ([]*Translation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*Translation{}
	for cur.Next(ctx) {
		var t Translation
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, cur.Err()
}

func (r *MongoRepository) Update(ctx context.Context, t *Translation) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{"userId": userID})
}

// MemoryRepository is an in-memory Repository used by unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*Translation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*Translation)}
}

func (m *MemoryRepository) Create(_ context.Context, t *Translation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Visibility == "" {
		t.Visibility = VisibilityPrivate
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.store[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (m *MemoryRepository) ListByUser(_ context.Context, userID string) ([]*Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Translation{}
	for _, t := range m.store {
		if t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (m *MemoryRepository) ListPublic(_ context.Context) ([]*Translation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*Translation{}
	for _, t := range m.store {
		if t.Visibility == VisibilityPublic {
			cp := *t
			out = append(out, &cp)
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (m *MemoryRepository) Update(_ context.Context, t *Translation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[t.ID]; !ok {
		return ErrNotFound
	}
	t.UpdatedAt = time.Now().UTC()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *MemoryRepository) CountByUser(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, t := range m.store {
		if t.UserID == userID {
			n++
		}
	}
	return n, nil
}

func sortByCreatedDesc(ts []*Translation) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].CreatedAt.After(ts[j].CreatedAt) })
}
