package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/accelrix/intern-service/internal/config"
	"github.com/accelrix/intern-service/internal/models"
)

const (
	internsCollection  = "interns"
	contactsCollection = "contacts"
)

// MongoDBStorage implements Storage interface using MongoDB
type MongoDBStorage struct {
	client   *mongo.Client
	interns  *mongo.Collection
	contacts *mongo.Collection
}

// NewMongoDBStorage connects to MongoDB and makes sure the internId index exists
func NewMongoDBStorage(ctx context.Context, cfg config.StorageConfig) (*MongoDBStorage, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDBDatabase)
	storage := &MongoDBStorage{
		client:   client,
		interns:  db.Collection(internsCollection),
		contacts: db.Collection(contactsCollection),
	}

	if err := storage.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return storage, nil
}

// ensureIndexes creates the unique internId index. It is what keeps
// concurrent upserts from inserting the same key twice.
func (m *MongoDBStorage) ensureIndexes(ctx context.Context) error {
	_, err := m.interns.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: models.FieldInternID, Value: 1}},
		Options: options.Index().SetUnique(true).SetName("internId_unique"),
	})
	return err
}

// UpsertInterns sends the upserts as unordered bulk writes. A batch without
// repeated internIds is a single write; repeats go into later writes so each
// key sees its updates in batch order.
func (m *MongoDBStorage) UpsertInterns(ctx context.Context, upserts []models.InternUpsert) (*models.BulkResult, error) {
	total := &models.BulkResult{}
	now := time.Now().UTC()

	for _, round := range splitRounds(upserts) {
		res, err := m.interns.BulkWrite(ctx, buildUpsertModels(round, now), options.BulkWrite().SetOrdered(false))
		result, err := translateBulkWrite(round, res, err)
		if err != nil {
			return nil, err
		}
		total.MatchedCount += result.MatchedCount
		total.ModifiedCount += result.ModifiedCount
		total.UpsertedCount += result.UpsertedCount
		total.Failures = append(total.Failures, result.Failures...)
	}
	return total, nil
}

// splitRounds groups upserts so no internId repeats within a round. The n-th
// occurrence of a key lands in round n.
func splitRounds(upserts []models.InternUpsert) [][]models.InternUpsert {
	var rounds [][]models.InternUpsert
	seen := make(map[string]int, len(upserts))
	for _, u := range upserts {
		n := seen[u.InternID]
		seen[u.InternID] = n + 1
		if n == len(rounds) {
			rounds = append(rounds, nil)
		}
		rounds[n] = append(rounds[n], u)
	}
	return rounds
}

func buildUpsertModels(upserts []models.InternUpsert, now time.Time) []mongo.WriteModel {
	writeModels := make([]mongo.WriteModel, 0, len(upserts))
	for _, u := range upserts {
		update := bson.D{}
		if len(u.Set) > 0 {
			set := make(bson.D, 0, len(u.Set))
			for _, f := range u.Set {
				set = append(set, bson.E{Key: f.Field, Value: f.Value})
			}
			update = append(update, bson.E{Key: "$set", Value: set})
		}
		update = append(update, bson.E{Key: "$setOnInsert", Value: bson.D{{Key: models.FieldCreatedAt, Value: now}}})

		writeModels = append(writeModels, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: models.FieldInternID, Value: u.InternID}}).
			SetUpdate(update).
			SetUpsert(true))
	}
	return writeModels
}

// translateBulkWrite maps a bulk write outcome onto BulkResult. Write errors
// on individual elements keep the counts of the siblings that succeeded;
// anything else fails the whole batch.
func translateBulkWrite(upserts []models.InternUpsert, res *mongo.BulkWriteResult, err error) (*models.BulkResult, error) {
	if err == nil {
		return bulkResultFrom(res), nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) || bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 || res == nil {
		return nil, fmt.Errorf("failed to bulk upsert interns: %w", err)
	}

	result := bulkResultFrom(res)
	for _, we := range bwe.WriteErrors {
		failure := models.ElementError{Index: we.Index, Message: we.Message}
		if we.Index >= 0 && we.Index < len(upserts) {
			failure.Index = upserts[we.Index].Index
			failure.InternID = upserts[we.Index].InternID
		}
		result.Failures = append(result.Failures, failure)
	}
	return result, nil
}

func bulkResultFrom(res *mongo.BulkWriteResult) *models.BulkResult {
	if res == nil {
		return &models.BulkResult{}
	}
	return &models.BulkResult{
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
}

// GetInternByID retrieves a record by its internId
func (m *MongoDBStorage) GetInternByID(ctx context.Context, internID string) (*models.InternshipRecord, error) {
	var rec models.InternshipRecord
	err := m.interns.FindOne(ctx, bson.D{{Key: models.FieldInternID, Value: internID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get intern %s: %w", internID, err)
	}
	return &rec, nil
}

// SaveContact stores a contact form submission
func (m *MongoDBStorage) SaveContact(ctx context.Context, msg models.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if _, err := m.contacts.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("failed to store contact message: %w", err)
	}
	return nil
}

// Ping checks the primary is reachable
func (m *MongoDBStorage) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *MongoDBStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
