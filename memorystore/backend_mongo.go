package memorystore

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Shubhamnegi/agent-core/domain"
)

const (
	defaultMemoryCollection = "agent_memory"
	defaultMongoOpTimeout   = 5 * time.Second
)

// MongoOptions configures a MongoBackend.
type MongoOptions struct {
	Client         *mongodriver.Client
	Database       string
	CollectionName string
	Timeout        time.Duration
}

// MongoBackend is a Mongo-backed Backend, structured after the session
// store's client: a thin collection wrapper interface sits between
// MongoBackend and the concrete driver types so tests can substitute a fake
// without a live server.
type MongoBackend struct {
	coll    collection
	timeout time.Duration
}

// NewMongoBackend constructs a MongoBackend and ensures the indexes
// memory lookups depend on (unique namespaced_key, tenant/scope/session
// compound index for search).
func NewMongoBackend(ctx context.Context, opts MongoOptions) (*MongoBackend, error) {
	if opts.Client == nil {
		return nil, errors.New("memorystore: mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("memorystore: database name is required")
	}
	collName := opts.CollectionName
	if collName == "" {
		collName = defaultMemoryCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultMongoOpTimeout
	}
	coll := mongoCollection{coll: opts.Client.Database(opts.Database).Collection(collName)}

	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := ensureMemoryIndexes(ctxTimeout, coll); err != nil {
		return nil, err
	}
	return &MongoBackend{coll: coll, timeout: timeout}, nil
}

func (b *MongoBackend) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}

func (b *MongoBackend) Put(ctx context.Context, rec domain.MemoryRecord) error {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	doc := fromMemoryRecord(rec)
	filter := bson.M{"namespaced_key": rec.NamespacedKey}
	update := bson.M{
		"$set": bson.M{
			"tenant_id":         doc.TenantID,
			"session_id":        doc.SessionID,
			"task_id":           doc.TaskID,
			"scope":             doc.Scope,
			"key":               doc.Label,
			"value":             doc.Value,
			"return_spec_shape": doc.ReturnSpecShape,
			"updated_at":        doc.UpdatedAt,
			"embedding":         doc.Embedding,
		},
		"$setOnInsert": bson.M{
			"namespaced_key": doc.NamespacedKey,
			"created_at":     doc.CreatedAt,
		},
	}
	_, err := b.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

func (b *MongoBackend) Get(ctx context.Context, namespacedKey string) (*domain.MemoryRecord, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	var doc memoryDocument
	if err := b.coll.FindOne(ctx, bson.M{"namespaced_key": namespacedKey}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	rec := doc.toMemoryRecord()
	return &rec, nil
}

func (b *MongoBackend) Search(ctx context.Context, tenantID, sessionID string, scope domain.MemoryScope, query string, topK int) ([]domain.MemoryRecord, error) {
	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	filter := bson.M{"tenant_id": tenantID, "scope": scope}
	if scope == domain.ScopeSession {
		filter["session_id"] = sessionID
	}
	if query != "" {
		filter["key"] = bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	}

	cur, err := b.coll.Find(ctx, filter, options.Find().SetLimit(int64(topK)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []domain.MemoryRecord
	for cur.Next(ctx) {
		var doc memoryDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toMemoryRecord())
	}
	return out, cur.Err()
}

type memoryDocument struct {
	NamespacedKey   string            `bson:"namespaced_key"`
	TenantID        string            `bson:"tenant_id"`
	SessionID       string            `bson:"session_id"`
	TaskID          string            `bson:"task_id"`
	Scope           string            `bson:"scope"`
	Label           string            `bson:"key"`
	Value           map[string]any    `bson:"value"`
	ReturnSpecShape map[string]string `bson:"return_spec_shape,omitempty"`
	CreatedAt       time.Time         `bson:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at"`
	Embedding       []float64         `bson:"embedding,omitempty"`
}

func fromMemoryRecord(rec domain.MemoryRecord) memoryDocument {
	return memoryDocument{
		NamespacedKey:   rec.NamespacedKey,
		TenantID:        rec.TenantID,
		SessionID:       rec.SessionID,
		TaskID:          rec.TaskID,
		Scope:           string(rec.Scope),
		Label:           rec.Label,
		Value:           rec.Value,
		ReturnSpecShape: rec.ReturnSpecShape,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
		Embedding:       rec.Embedding,
	}
}

func (doc memoryDocument) toMemoryRecord() domain.MemoryRecord {
	return domain.MemoryRecord{
		NamespacedKey:   doc.NamespacedKey,
		TenantID:        doc.TenantID,
		SessionID:       doc.SessionID,
		TaskID:          doc.TaskID,
		Scope:           domain.MemoryScope(doc.Scope),
		Label:           doc.Label,
		Value:           doc.Value,
		ReturnSpecShape: doc.ReturnSpecShape,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		Embedding:       doc.Embedding,
	}
}

func ensureMemoryIndexes(ctx context.Context, coll collection) error {
	namespacedKeyIndex := mongodriver.IndexModel{
		Keys:    bson.D{{Key: "namespaced_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, namespacedKeyIndex); err != nil {
		return err
	}
	searchIndex := mongodriver.IndexModel{
		Keys: bson.D{
			{Key: "tenant_id", Value: 1},
			{Key: "scope", Value: 1},
			{Key: "session_id", Value: 1},
		},
	}
	_, err := coll.Indexes().CreateOne(ctx, searchIndex)
	return err
}

type collection interface {
	FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (cursor, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error)
	Indexes() indexView
}

type indexView interface {
	CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error)
}

type singleResult interface {
	Decode(val any) error
}

type cursor interface {
	Close(ctx context.Context) error
	Decode(val any) error
	Err() error
	Next(ctx context.Context) bool
}

type mongoCollection struct {
	coll *mongodriver.Collection
}

func (c mongoCollection) FindOne(ctx context.Context, filter any, opts ...options.Lister[options.FindOneOptions]) singleResult {
	return mongoSingleResult{res: c.coll.FindOne(ctx, filter, opts...)}
}

func (c mongoCollection) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (cursor, error) {
	cur, err := c.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return mongoCursor{cur: cur}, nil
}

func (c mongoCollection) UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongodriver.UpdateResult, error) {
	return c.coll.UpdateOne(ctx, filter, update, opts...)
}

func (c mongoCollection) Indexes() indexView {
	return mongoIndexView{view: c.coll.Indexes()}
}

type mongoSingleResult struct {
	res *mongodriver.SingleResult
}

func (r mongoSingleResult) Decode(val any) error {
	return r.res.Decode(val)
}

type mongoCursor struct {
	cur *mongodriver.Cursor
}

func (c mongoCursor) Close(ctx context.Context) error { return c.cur.Close(ctx) }
func (c mongoCursor) Decode(val any) error            { return c.cur.Decode(val) }
func (c mongoCursor) Err() error                       { return c.cur.Err() }
func (c mongoCursor) Next(ctx context.Context) bool    { return c.cur.Next(ctx) }

type mongoIndexView struct {
	view mongodriver.IndexView
}

func (v mongoIndexView) CreateOne(ctx context.Context, model mongodriver.IndexModel, opts ...options.Lister[options.CreateIndexesOptions]) (string, error) {
	return v.view.CreateOne(ctx, model, opts...)
}
