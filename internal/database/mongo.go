package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"ticketdesk/entity"
	"ticketdesk/internal/config"
	"ticketdesk/lib/sl"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	indexEmail            = "email_unique"
	collectionCounters    = "counters"
	collectionRegistrants = "registrants"
)

// MongoDB keeps one client for the process lifetime; the driver pools connections.
type MongoDB struct {
	client   *mongo.Client
	database string
	log      *slog.Logger
}

func NewMongoClient(ctx context.Context, conf *config.Config, log *slog.Logger) (*MongoDB, error) {
	clientOptions := options.Client()
	if conf.Mongo.Uri != "" {
		clientOptions.ApplyURI(conf.Mongo.Uri)
	} else {
		clientOptions.ApplyURI(fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port))
		if conf.Mongo.User != "" {
			clientOptions.SetAuth(options.Credential{
				Username:   conf.Mongo.User,
				Password:   conf.Mongo.Password,
				AuthSource: conf.Mongo.Database,
			})
		}
	}
	clientOptions.SetConnectTimeout(10 * time.Second)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	m := &MongoDB{
		client:   client,
		database: conf.Mongo.Database,
		log:      log.With(sl.Module("database.mongo")),
	}
	if err = m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	m.log.Info("mongodb connected", slog.String("database", m.database))
	return m, nil
}

func (m *MongoDB) collection(name string) *mongo.Collection {
	return m.client.Database(m.database).Collection(name)
}

// ensureIndexes makes the store, not the pre-check, the authority on email uniqueness.
func (m *MongoDB) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{"email", 1}},
			Options: options.Index().
				SetName(indexEmail).
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{"email", bson.D{{"$exists", true}}}}),
		},
		{
			Keys:    bson.D{{"ticket_code", 1}},
			Options: options.Index().SetName("ticket_code_unique").SetUnique(true),
		},
	}
	_, err := m.collection(collectionRegistrants).Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("mongodb create indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("mongodb find: %w", err)
}

func (m *MongoDB) GetCounter(ctx context.Context, key string) (*entity.Counter, error) {
	var counter entity.Counter
	err := m.collection(collectionCounters).FindOne(ctx, bson.D{{"_id", key}}).Decode(&counter)
	if err != nil {
		return nil, m.findError(err)
	}
	return &counter, nil
}

// EnsureCounter inserts the counter only if absent; losing an upsert race is not an error.
func (m *MongoDB) EnsureCounter(ctx context.Context, key string, total int) (bool, error) {
	filter := bson.D{{"_id", key}}
	update := bson.D{{"$setOnInsert", bson.D{
		{"current", 0},
		{"total", total},
	}}}
	opts := options.Update().SetUpsert(true)
	result, err := m.collection(collectionCounters).UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mongodb ensure counter: %w", err)
	}
	return result.UpsertedCount > 0, nil
}

func (m *MongoDB) ClaimTicket(ctx context.Context, key string) (int, error) {
	filter := bson.D{
		{"_id", key},
		{"$expr", bson.D{{"$lt", bson.A{"$current", "$total"}}}},
	}
	update := bson.D{{"$inc", bson.D{{"current", 1}}}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var counter entity.Counter
	err := m.collection(collectionCounters).FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter)
	if err != nil {
		return 0, m.findError(err)
	}
	return counter.Current, nil
}

func (m *MongoDB) SetCounterCurrent(ctx context.Context, key string, current, total int) error {
	filter := bson.D{{"_id", key}}
	update := bson.D{
		{"$set", bson.D{{"current", current}}},
		{"$setOnInsert", bson.D{{"total", total}}},
	}
	opts := options.Update().SetUpsert(true)
	_, err := m.collection(collectionCounters).UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("mongodb set counter: %w", err)
	}
	return nil
}

func (m *MongoDB) CreateRegistrant(ctx context.Context, registrant *entity.Registrant) error {
	_, err := m.collection(collectionRegistrants).InsertOne(ctx, registrant)
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), indexEmail) {
			return fmt.Errorf("mongodb insert registrant: %w", ErrDuplicateEmail)
		}
		return fmt.Errorf("mongodb insert registrant: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("mongodb insert registrant: %w", err)
	}
	return nil
}

func (m *MongoDB) FindRegistrantByEmail(ctx context.Context, email string) (*entity.Registrant, error) {
	var registrant entity.Registrant
	err := m.collection(collectionRegistrants).FindOne(ctx, bson.D{{"email", email}}).Decode(&registrant)
	if err != nil {
		return nil, m.findError(err)
	}
	return &registrant, nil
}

func (m *MongoDB) CountRegistrants(ctx context.Context) (int64, error) {
	count, err := m.collection(collectionRegistrants).CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb count registrants: %w", err)
	}
	return count, nil
}

func (m *MongoDB) DeleteRegistrants(ctx context.Context) (int64, error) {
	result, err := m.collection(collectionRegistrants).DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("mongodb delete registrants: %w", err)
	}
	return result.DeletedCount, nil
}
