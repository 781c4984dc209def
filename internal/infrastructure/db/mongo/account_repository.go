package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/identitylab/account-service/internal/core/domain"
)

const accountCollection = "accounts"

// AccountRepository persists accounts with their profile embedded in the
// same document: the profile is created atomically with the account and
// removed with it, no separate cascade needed.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(accountCollection)}
}

type mongoProfile struct {
	ProviderID  string `bson:"provider_id,omitempty"`
	MFAEnabled  bool   `bson:"mfa_enabled"`
	PhoneNumber string `bson:"phone_number,omitempty"`
}

type mongoAccount struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	Active       bool               `bson:"active"`
	Superuser    bool               `bson:"superuser"`
	Profile      mongoProfile       `bson:"profile"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	doc := mongoAccount{
		Username:     account.Username,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Active:       account.Active,
		Superuser:    account.Superuser,
		Profile: mongoProfile{
			ProviderID:  account.Profile.ProviderID,
			MFAEnabled:  account.Profile.MFAEnabled,
			PhoneNumber: account.Profile.PhoneNumber,
		},
		CreatedAt: account.CreatedAt.Unix(),
		UpdatedAt: account.UpdatedAt.Unix(),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *account
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) Delete(ctx context.Context, username string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"username": username})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) SetProviderID(ctx context.Context, username, providerID string) error {
	return r.updateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{"profile.provider_id": providerID, "updated_at": time.Now().UTC().Unix()},
	})
}

func (r *AccountRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	return r.updateOne(ctx, bson.M{"email": email}, bson.M{
		"$set": bson.M{"password_hash": passwordHash, "updated_at": time.Now().UTC().Unix()},
	})
}

// ToggleMFA flips the flag server-side with a pipeline update, so two
// concurrent toggles never read-modify-write over each other.
func (r *AccountRepository) ToggleMFA(ctx context.Context, username string) (bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"profile.mfa_enabled": bson.M{"$not": "$profile.mfa_enabled"},
			"updated_at":          time.Now().UTC().Unix(),
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated mongoAccount
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"username": username}, pipeline, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return false, domain.ErrAccountNotFound
		}
		return false, fmt.Errorf("toggle mfa: %w", err)
	}
	return updated.Profile.MFAEnabled, nil
}

func (r *AccountRepository) SetPhoneNumber(ctx context.Context, username, phone string) error {
	return r.updateOne(ctx, bson.M{"username": username}, bson.M{
		"$set": bson.M{"profile.phone_number": phone, "updated_at": time.Now().UTC().Unix()},
	})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var ma mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&ma); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return toDomain(&ma), nil
}

func (r *AccountRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func toDomain(ma *mongoAccount) *domain.Account {
	return &domain.Account{
		ID:           ma.ID.Hex(),
		Username:     ma.Username,
		Email:        ma.Email,
		PasswordHash: ma.PasswordHash,
		Active:       ma.Active,
		Superuser:    ma.Superuser,
		Profile: domain.Profile{
			ProviderID:  ma.Profile.ProviderID,
			MFAEnabled:  ma.Profile.MFAEnabled,
			PhoneNumber: ma.Profile.PhoneNumber,
		},
		CreatedAt: unixToTime(ma.CreatedAt),
		UpdatedAt: unixToTime(ma.UpdatedAt),
	}
}

// duplicateKeyError maps a unique-index violation to the conflicting field.
func duplicateKeyError(err error) error {
	if strings.Contains(err.Error(), "uniq_email") {
		return domain.ErrEmailExists
	}
	return domain.ErrUsernameExists
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
