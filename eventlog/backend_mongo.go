package eventlog

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Shubhamnegi/agent-core/domain"
)

const (
	defaultEventCollection = "agent_events"
	defaultEventOpTimeout  = 5 * time.Second
)

// MongoOptions configures a Mongo-backed event log.
type MongoOptions struct {
	Client         *mongodriver.Client
	Database       string
	CollectionName string
	Timeout        time.Duration
}

// Mongo is a Mongo-backed repo.EventRepository, structured after the
// session store client: a plain collection handle plus ensured indexes on
// plan_id and ts, since ByPlan and Retain are the two access patterns.
type Mongo struct {
	coll    *mongodriver.Collection
	timeout time.Duration
}

// NewMongo constructs a Mongo event log and ensures its indexes.
func NewMongo(ctx context.Context, opts MongoOptions) (*Mongo, error) {
	if opts.Client == nil {
		return nil, errors.New("eventlog: mongo client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("eventlog: database name is required")
	}
	collName := opts.CollectionName
	if collName == "" {
		collName = defaultEventCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultEventOpTimeout
	}
	coll := opts.Client.Database(opts.Database).Collection(collName)

	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := coll.Indexes().CreateOne(ctxTimeout, mongodriver.IndexModel{
		Keys: bson.D{{Key: "plan_id", Value: 1}},
	}); err != nil {
		return nil, err
	}
	if _, err := coll.Indexes().CreateOne(ctxTimeout, mongodriver.IndexModel{
		Keys: bson.D{{Key: "ts", Value: 1}},
	}); err != nil {
		return nil, err
	}
	return &Mongo{coll: coll, timeout: timeout}, nil
}

func (m *Mongo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}

func (m *Mongo) Append(ctx context.Context, events ...domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	docs := make([]any, len(events))
	for i, e := range events {
		e.Payload = flattenVolatile(e.Payload)
		docs[i] = eventDocument{
			Type:      string(e.Type),
			TenantID:  e.TenantID,
			SessionID: e.SessionID,
			PlanID:    e.PlanID,
			TaskID:    e.TaskID,
			Payload:   e.Payload,
			Timestamp: e.Timestamp,
		}
	}
	_, err := m.coll.InsertMany(ctx, docs)
	return err
}

func (m *Mongo) ByPlan(ctx context.Context, planID string) ([]domain.Event, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cur, err := m.coll.Find(ctx, bson.M{"plan_id": planID}, options.Find().SetSort(bson.D{{Key: "ts", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []domain.Event
	for cur.Next(ctx) {
		var doc eventDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEvent())
	}
	return out, cur.Err()
}

func (m *Mongo) Retain(ctx context.Context, olderThanDays int) (int, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)
	res, err := m.coll.DeleteMany(ctx, bson.M{"ts": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

type eventDocument struct {
	Type      string         `bson:"event_type"`
	TenantID  string         `bson:"tenant_id"`
	SessionID string         `bson:"session_id"`
	PlanID    string         `bson:"plan_id,omitempty"`
	TaskID    string         `bson:"task_id,omitempty"`
	Payload   map[string]any `bson:"payload"`
	Timestamp time.Time      `bson:"ts"`
}

func (doc eventDocument) toEvent() domain.Event {
	return domain.Event{
		Type:      domain.EventType(doc.Type),
		TenantID:  doc.TenantID,
		SessionID: doc.SessionID,
		PlanID:    doc.PlanID,
		TaskID:    doc.TaskID,
		Payload:   doc.Payload,
		Timestamp: doc.Timestamp,
	}
}
