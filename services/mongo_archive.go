package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"stock_portfolio_backend/services/recommender"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB archive constants
const (
	MongoDBName             = "portfolio_pulse"
	MongoSuggestionRunsColl = "suggestion_runs"
	SuggestionRetentionDays = 90
)

// SuggestionRun is one archived pipeline invocation. Suggestions are stored
// in their normalized form; the decimal fields have no bson encoding of
// their own and would otherwise serialize as empty documents.
type SuggestionRun struct {
	ID          string        `bson:"_id"`
	UserID      string        `bson:"user_id"`
	GeneratedAt time.Time     `bson:"generated_at"`
	Suggestions []interface{} `bson:"suggestions"`
}

// MongoArchive stores suggestion runs in MongoDB Atlas. The archive is
// optional: when no URI is configured every operation is a logged no-op.
type MongoArchive struct {
	client      *mongo.Client
	database    *mongo.Database
	mu          sync.RWMutex
	isConnected bool
	uriSet      bool
	lastError   string
}

// Global archive instance
var GlobalMongoArchive *MongoArchive

// InitMongoArchive initializes the suggestion archive
func InitMongoArchive(mongoURI string) error {
	if mongoURI == "" {
		log.Println("MONGODB_URI not set, suggestion archive disabled")
		GlobalMongoArchive = &MongoArchive{
			uriSet:    false,
			lastError: "MONGODB_URI environment variable not set",
		}
		return nil
	}

	GlobalMongoArchive = &MongoArchive{uriSet: true}
	return GlobalMongoArchive.connect(mongoURI)
}

// connect establishes the MongoDB Atlas connection
func (m *MongoArchive) connect(mongoURI string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(mongoURI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(30 * time.Second).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		m.lastError = fmt.Sprintf("Failed to connect: %v", err)
		log.Printf("Failed to connect to MongoDB Atlas: %v", err)
		return err
	}

	if err := client.Ping(ctx, nil); err != nil {
		m.lastError = fmt.Sprintf("Failed to ping: %v", err)
		log.Printf("Failed to ping MongoDB Atlas: %v", err)
		client.Disconnect(ctx)
		return err
	}

	m.mu.Lock()
	m.client = client
	m.database = client.Database(MongoDBName)
	m.isConnected = true
	m.lastError = ""
	m.mu.Unlock()

	log.Println("MongoDB Atlas connected successfully")
	return nil
}

// IsEnabled reports whether the archive is connected and usable
func (m *MongoArchive) IsEnabled() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.uriSet && m.isConnected
}

// ArchiveRun stores one pipeline invocation; failures are logged, never fatal
func (m *MongoArchive) ArchiveRun(userID string, suggestions []recommender.Suggestion) {
	if !m.IsEnabled() {
		return
	}

	run := SuggestionRun{
		ID:          uuid.NewString(),
		UserID:      userID,
		GeneratedAt: time.Now(),
		Suggestions: recommender.NormalizeSuggestions(suggestions),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m.mu.RLock()
	coll := m.database.Collection(MongoSuggestionRunsColl)
	m.mu.RUnlock()

	if _, err := coll.InsertOne(ctx, run); err != nil {
		log.Printf("Warning: failed to archive suggestion run for %s: %v", userID, err)
	}
}

// PruneRuns removes archived runs older than the retention window
func (m *MongoArchive) PruneRuns() (int64, error) {
	if !m.IsEnabled() {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().AddDate(0, 0, -SuggestionRetentionDays)

	m.mu.RLock()
	coll := m.database.Collection(MongoSuggestionRunsColl)
	m.mu.RUnlock()

	result, err := coll.DeleteMany(ctx, bson.M{"generated_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune suggestion runs: %w", err)
	}
	return result.DeletedCount, nil
}

// Disconnect closes the MongoDB connection
func (m *MongoArchive) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		m.client.Disconnect(ctx)
		m.isConnected = false
	}
}
