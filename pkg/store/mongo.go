package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errs "github.com/matzehuels/orchard/pkg/errors"
	"github.com/matzehuels/orchard/pkg/studio"
)

// Collection names.
const (
	StateCollection  = "studio_state"
	LayoutCollection = "layouts"
)

// DefaultDatabase is used when MongoOptions.Database is empty.
const DefaultDatabase = "orchard"

// DefaultStateKey identifies the single studio state document.
const DefaultStateKey = "default"

// MongoOptions configures a MongoStore.
type MongoOptions struct {
	URI      string
	Database string
	// StateKey separates studio states that share one database.
	StateKey string
}

// SetDefaults fills empty fields.
func (o *MongoOptions) SetDefaults() {
	if o.Database == "" {
		o.Database = DefaultDatabase
	}
	if o.StateKey == "" {
		o.StateKey = DefaultStateKey
	}
}

// Validate checks the options.
func (o MongoOptions) Validate() error {
	if o.URI == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "mongo uri is required")
	}
	return nil
}

// MongoStore keeps studio state and applied layouts in MongoDB.
type MongoStore struct {
	client   *mongo.Client
	state    *mongo.Collection
	layouts  *mongo.Collection
	stateKey string
	now      func() time.Time
	owned    bool
}

type stateDoc struct {
	ID        string       `bson:"_id"`
	State     studio.State `bson:"state"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetConnectTimeout(5*time.Second))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "connect to mongo")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errs.Wrap(errs.ErrCodeStorage, err, "ping mongo")
	}
	s := NewMongoStoreFromClient(client, opts.Database, opts.StateKey)
	s.owned = true
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Close does not
// disconnect it.
func NewMongoStoreFromClient(client *mongo.Client, database, stateKey string) *MongoStore {
	if database == "" {
		database = DefaultDatabase
	}
	if stateKey == "" {
		stateKey = DefaultStateKey
	}
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		state:    db.Collection(StateCollection),
		layouts:  db.Collection(LayoutCollection),
		stateKey: stateKey,
		now:      time.Now,
	}
}

// Load reads the studio state.
func (s *MongoStore) Load(ctx context.Context) (*studio.State, error) {
	var doc stateDoc
	err := s.state.FindOne(ctx, bson.M{"_id": s.stateKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find studio state: %w", err)
	}
	return &doc.State, nil
}

// Save upserts the studio state.
func (s *MongoStore) Save(ctx context.Context, st studio.State) error {
	doc := stateDoc{ID: s.stateKey, State: st, UpdatedAt: s.now().UTC()}
	_, err := s.state.ReplaceOne(ctx, bson.M{"_id": s.stateKey}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save studio state: %w", err)
	}
	return nil
}

// GetLayout reads the composition applied to reviewID.
func (s *MongoStore) GetLayout(ctx context.Context, reviewID string) (*Applied, error) {
	if err := errs.ValidateRecordID(reviewID); err != nil {
		return nil, err
	}
	var a Applied
	err := s.layouts.FindOne(ctx, bson.M{"_id": reviewID}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find layout: %w", err)
	}
	return &a, nil
}

// PutLayout upserts the composition applied to reviewID.
func (s *MongoStore) PutLayout(ctx context.Context, reviewID string, p studio.Payload) error {
	if err := errs.ValidateRecordID(reviewID); err != nil {
		return err
	}
	doc := Applied{ReviewID: reviewID, Payload: p, UpdatedAt: s.now().UTC()}
	_, err := s.layouts.ReplaceOne(ctx, bson.M{"_id": reviewID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save layout: %w", err)
	}
	return nil
}

// DeleteLayout removes the composition applied to reviewID.
func (s *MongoStore) DeleteLayout(ctx context.Context, reviewID string) error {
	if err := errs.ValidateRecordID(reviewID); err != nil {
		return err
	}
	if _, err := s.layouts.DeleteOne(ctx, bson.M{"_id": reviewID}); err != nil {
		return fmt.Errorf("delete layout: %w", err)
	}
	return nil
}

// ListLayouts returns the review ids with a saved composition, sorted.
func (s *MongoStore) ListLayouts(ctx context.Context) ([]string, error) {
	cur, err := s.layouts.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list layouts: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode layouts: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Close disconnects the client when the store created it.
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Backend = (*MongoStore)(nil)
