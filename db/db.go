package db

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection           *mongo.Collection
	ItemsCollection          *mongo.Collection
	CategoriesCollection     *mongo.Collection
	CartsCollection          *mongo.Collection
	BookingsCollection       *mongo.Collection
	PaymentDetailsCollection *mongo.Collection
	DocumentsCollection      *mongo.Collection
	ChatsCollection          *mongo.Collection
	MessagesCollection       *mongo.Collection
	TermsCollection          *mongo.Collection
	TicketsCollection        *mongo.Collection
	ReviewsCollection        *mongo.Collection
	Client                   *mongo.Client
)

// Initialize MongoDB connection
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	var err error
	Client, err = mongo.Connect(context.TODO(), options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	database := Client.Database("rentoradb")
	UserCollection = database.Collection("users")
	ItemsCollection = database.Collection("items")
	CategoriesCollection = database.Collection("categories")
	CartsCollection = database.Collection("carts")
	BookingsCollection = database.Collection("bookings")
	PaymentDetailsCollection = database.Collection("paymentdetails")
	DocumentsCollection = database.Collection("documents")
	ChatsCollection = database.Collection("chats")
	MessagesCollection = database.Collection("messages")
	TermsCollection = database.Collection("terms")
	TicketsCollection = database.Collection("tickets")
	ReviewsCollection = database.Collection("reviews")
}

// EnsureIndexes creates the indexes the query paths depend on. Safe to call
// on every startup; Mongo treats an existing identical index as a no-op.
func EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if _, err := UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true).SetName("unique_email"),
	}); err != nil {
		return err
	}

	itemIdx := []mongo.IndexModel{
		{Keys: bson.M{"location": "2dsphere"}, Options: options.Index().SetName("geo_location")},
		{Keys: bson.D{{Key: "name", Value: "text"}, {Key: "description", Value: "text"}}, Options: options.Index().SetName("text_search")},
		{Keys: bson.M{"categoryId": 1}, Options: options.Index().SetName("by_category")},
	}
	if _, err := ItemsCollection.Indexes().CreateMany(ctx, itemIdx); err != nil {
		return err
	}

	if _, err := CartsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"userId": 1},
		Options: options.Index().SetUnique(true).SetName("one_cart_per_user"),
	}); err != nil {
		return err
	}

	if _, err := PaymentDetailsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"userId": 1},
		Options: options.Index().SetUnique(true).SetName("one_merchant_per_user"),
	}); err != nil {
		return err
	}

	_, err := MessagesCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chatId", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("chat_history"),
	})
	return err
}
