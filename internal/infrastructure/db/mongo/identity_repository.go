package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/storefront/auth-core/internal/core/domain"
)

const identityCollection = "identities"

// IdentityRepository implements ports.CredentialStore on MongoDB. Every call
// runs under its own deadline so a slow server cannot hold a request open.
type IdentityRepository struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewIdentityRepository(db *mongo.Database, timeout time.Duration) *IdentityRepository {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &IdentityRepository{coll: db.Collection(identityCollection), timeout: timeout}
}

type mongoIdentity struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	Email             string             `bson:"email"`
	PasswordHash      string             `bson:"password_hash"`
	FirstName         string             `bson:"first_name"`
	LastName          string             `bson:"last_name"`
	PhoneNumber       string             `bson:"phone_number,omitempty"`
	Role              string             `bson:"role"`
	IsActive          bool               `bson:"is_active"`
	LoginAttempts     int                `bson:"login_attempts"`
	LockUntil         *time.Time         `bson:"lock_until,omitempty"`
	PasswordChangedAt *time.Time         `bson:"password_changed_at,omitempty"`
	LastLogin         *time.Time         `bson:"last_login,omitempty"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (m *mongoIdentity) toDomain() *domain.Identity {
	return &domain.Identity{
		ID:                m.ID.Hex(),
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		FirstName:         m.FirstName,
		LastName:          m.LastName,
		PhoneNumber:       m.PhoneNumber,
		Role:              domain.Role(m.Role),
		IsActive:          m.IsActive,
		LoginAttempts:     m.LoginAttempts,
		LockUntil:         utcPtr(m.LockUntil),
		PasswordChangedAt: utcPtr(m.PasswordChangedAt),
		LastLogin:         utcPtr(m.LastLogin),
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

func (r *IdentityRepository) Create(ctx context.Context, in domain.NewIdentity) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	doc := mongoIdentity{
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		Role:         string(in.Role),
		IsActive:     true,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, storeErr("insert identity", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc mongoIdentity
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, storeErr("find identity", err)
	}
	return doc.toDomain(), nil
}

// IncrementFailedAttempt is a single findAndModify with a pipeline update.
// The filter skips identities that are locked at now; the first stage clears
// an expired lock and restarts the count at 1, otherwise it adds one; the
// second stage sets lock_until once the threshold is reached.
func (r *IdentityRepository) IncrementFailedAttempt(ctx context.Context, id string, policy domain.LockoutPolicy, now time.Time) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}
	policy = policy.Normalize()

	filter := unlockedAt(oid, now)

	expired := bson.M{"$eq": bson.A{bson.M{"$type": "$lock_until"}, "date"}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "login_attempts", Value: bson.M{"$cond": bson.M{
				"if":   expired,
				"then": 1,
				"else": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$login_attempts", 0}}, 1}},
			}}},
			{Key: "lock_until", Value: bson.M{"$cond": bson.M{
				"if":   expired,
				"then": "$$REMOVE",
				"else": "$lock_until",
			}}},
			{Key: "updated_at", Value: now},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "lock_until", Value: bson.M{"$cond": bson.M{
				"if":   bson.M{"$gte": bson.A{"$login_attempts", policy.Threshold}},
				"then": now.Add(policy.Duration),
				"else": "$lock_until",
			}}},
		}}},
	}

	updated, err := r.findOneAndUpdate(ctx, "increment failed attempt", filter, pipeline)
	if errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, r.lockedOrMissing(ctx, id)
	}
	return updated, err
}

func (r *IdentityRepository) ResetFailedAttempts(ctx context.Context, id string, now time.Time) (*domain.Identity, error) {
	return r.updateByID(ctx, "reset failed attempts", id, bson.M{
		"$set":   bson.M{"login_attempts": 0, "updated_at": now},
		"$unset": bson.M{"lock_until": ""},
	})
}

// RecordSuccessfulLogin clears the counters only while the identity is
// unlocked at at. A lock set by a concurrent failure after the caller's gate
// check wins: the login is rejected with ErrAccountLocked.
func (r *IdentityRepository) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}

	updated, err := r.findOneAndUpdate(ctx, "record login", unlockedAt(oid, at), bson.M{
		"$set":   bson.M{"login_attempts": 0, "last_login": at, "updated_at": at},
		"$unset": bson.M{"lock_until": ""},
	})
	if errors.Is(err, domain.ErrIdentityNotFound) {
		return nil, r.lockedOrMissing(ctx, id)
	}
	return updated, err
}

func (r *IdentityRepository) SetPasswordHash(ctx context.Context, id, hash string, changedAt time.Time) (*domain.Identity, error) {
	return r.updateByID(ctx, "set password hash", id, bson.M{
		"$set": bson.M{"password_hash": hash, "password_changed_at": changedAt, "updated_at": changedAt},
	})
}

func (r *IdentityRepository) Deactivate(ctx context.Context, id string, at time.Time) (*domain.Identity, error) {
	return r.updateByID(ctx, "deactivate identity", id, bson.M{
		"$set": bson.M{"is_active": false, "updated_at": at},
	})
}

// unlockedAt matches the identity only when no lock is in force at now.
func unlockedAt(oid primitive.ObjectID, now time.Time) bson.M {
	return bson.M{
		"_id": oid,
		"$or": bson.A{
			bson.M{"lock_until": nil},
			bson.M{"lock_until": bson.M{"$lte": now}},
		},
	}
}

// lockedOrMissing explains a conditional update that matched nothing: either
// the id is unknown or the lock is in force.
func (r *IdentityRepository) lockedOrMissing(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrAccountLocked
}

func (r *IdentityRepository) updateByID(ctx context.Context, op, id string, update any) (*domain.Identity, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrIdentityNotFound
	}
	return r.findOneAndUpdate(ctx, op, bson.M{"_id": oid}, update)
}

func (r *IdentityRepository) findOneAndUpdate(ctx context.Context, op string, filter, update any) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc mongoIdentity
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, storeErr(op, err)
	}
	return doc.toDomain(), nil
}

// EnsureIndexes creates the unique email index the duplicate check relies on.
func (r *IdentityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "lock_until", Value: 1}}, Options: options.Index().SetSparse(true)},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
