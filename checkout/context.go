package checkout

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"rentora/db"
	"rentora/models"
)

// Context is the fully-resolved read model checkout runs against: the cart
// (with its version), the requesting user, and every distinct owner's payment
// details. Built once, then passed immutably through the orchestration steps.
type Context struct {
	User      models.User
	Cart      models.Cart
	Merchants map[string]*models.PaymentDetails // keyed by ownerId
}

// LoadContext assembles the checkout read model for a user. Owners without a
// PaymentDetails record map to a nil entry so validation can name the item.
func LoadContext(ctx context.Context, userID string) (*Context, error) {
	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user); err != nil {
		return nil, fmt.Errorf("user %s not found: %w", userID, err)
	}

	var cart models.Cart
	err := db.CartsCollection.FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == mongo.ErrNoDocuments {
		cart = models.Cart{UserID: userID, Lines: []models.CartLine{}}
	} else if err != nil {
		return nil, err
	}

	owners := make([]string, 0, len(cart.Lines))
	seen := make(map[string]bool, len(cart.Lines))
	for _, line := range cart.Lines {
		if !seen[line.OwnerID] {
			seen[line.OwnerID] = true
			owners = append(owners, line.OwnerID)
		}
	}

	merchants := make(map[string]*models.PaymentDetails, len(owners))
	if len(owners) > 0 {
		cur, err := db.PaymentDetailsCollection.Find(ctx, bson.M{"userId": bson.M{"$in": owners}})
		if err != nil {
			return nil, err
		}
		defer cur.Close(ctx)
		for cur.Next(ctx) {
			var pd models.PaymentDetails
			if err := cur.Decode(&pd); err != nil {
				return nil, err
			}
			merchants[pd.UserID] = &pd
		}
		if err := cur.Err(); err != nil {
			return nil, err
		}
	}

	return &Context{User: user, Cart: cart, Merchants: merchants}, nil
}

// WithTimeout is the standard per-request deadline for checkout DB work.
func WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 10*time.Second)
}
