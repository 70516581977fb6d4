package db

import (
	"context"
	"fmt"

	"highlight-dl/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection holds highlight records in MongoDB.
const DefaultCollection = "highlights"

// Client wraps the MongoDB client and database connection
type Client struct {
	mongoClient *mongo.Client
	database    *mongo.Database
	collection  *mongo.Collection
}

// NewClient creates a new database client. An empty collectionName means DefaultCollection.
func NewClient(connectionString, databaseName, collectionName string) *Client {
	if collectionName == "" {
		collectionName = DefaultCollection
	}

	clientOptions := options.Client().ApplyURI(connectionString)
	mongoClient, err := mongo.Connect(context.Background(), clientOptions)
	if err != nil {
		// Return client with nil - error will be caught during Connect()
		return &Client{}
	}

	database := mongoClient.Database(databaseName)
	collection := database.Collection(collectionName)

	return &Client{
		mongoClient: mongoClient,
		database:    database,
		collection:  collection,
	}
}

// Connect establishes connection to MongoDB
func (c *Client) Connect(ctx context.Context) error {
	if c.mongoClient == nil {
		return fmt.Errorf("mongo client not initialized")
	}
	return c.mongoClient.Ping(ctx, nil)
}

// Close closes the MongoDB connection
func (c *Client) Close(ctx context.Context) error {
	if c.mongoClient == nil {
		return nil
	}
	return c.mongoClient.Disconnect(ctx)
}

// SaveHighlight saves a highlight record to the database
func (c *Client) SaveHighlight(ctx context.Context, record *domain.HighlightRecord) error {
	if c.collection == nil {
		return fmt.Errorf("collection not initialized")
	}

	// The file path is the identity: re-downloading a title overwrites the
	// file, so it overwrites the record too.
	filter := bson.M{"path": record.Path}
	update := bson.M{"$set": record}
	opts := options.Update().SetUpsert(true)

	if _, err := c.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save highlight %s: %w", record.Path, err)
	}
	return nil
}
