// Package mongostore implements store.Store on MongoDB. Documents use the
// camelCase field names of the existing "admins" and "donations"
// collections so that a store created by earlier deployments stays readable.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/carecycle/carecycle/internal/config"
	"github.com/carecycle/carecycle/internal/model"
	"github.com/carecycle/carecycle/internal/store"
)

const (
	adminsCollection    = "admins"
	donationsCollection = "donations"
)

type adminDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password,omitempty"`
	Role      string             `bson:"role"`
	LastLogin *time.Time         `bson:"lastLogin,omitempty"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d adminDoc) toModel() model.Admin {
	a := model.Admin{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         model.Role(d.Role),
		CreatedAt:    d.CreatedAt.UTC(),
	}
	if d.LastLogin != nil {
		t := d.LastLogin.UTC()
		a.LastLogin = &t
	}
	return a
}

type donationDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	DonorName  string             `bson:"donorName"`
	Email      string             `bson:"email"`
	TabletName string             `bson:"tabletName"`
	ExpiryDate time.Time          `bson:"expiryDate"`
	Unopened   bool               `bson:"unopened"`
	Verified   bool               `bson:"verified"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

func (d donationDoc) toModel() model.Donation {
	return model.Donation{
		ID:         d.ID.Hex(),
		DonorName:  d.DonorName,
		Email:      d.Email,
		TabletName: d.TabletName,
		ExpiryDate: d.ExpiryDate.UTC(),
		Unopened:   d.Unopened,
		Verified:   d.Verified,
		CreatedAt:  d.CreatedAt.UTC(),
	}
}

// Store is a store.Store backed by a MongoDB database.
type Store struct {
	client    *mongo.Client
	admins    *mongo.Collection
	donations *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, selects database dbName and ensures the indexes the
// store relies on exist.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{
		client:    client,
		admins:    db.Collection(adminsCollection),
		donations: db.Collection(donationsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.admins.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create admins email index: %w", err)
	}
	_, err = s.donations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create donations createdAt index: %w", err)
	}
	return nil
}

// Ping checks the server connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// objectID parses a hex record ID. Malformed IDs cannot match any document,
// so they are reported as not found.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrNotFound
	}
	return oid, nil
}

// ---------------------------------------------------------------------------
// Admins
// ---------------------------------------------------------------------------

func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	if admin.Role == "" {
		admin.Role = model.RoleAdmin
	}
	admin.Email = store.NormalizeEmail(admin.Email)
	admin.CreatedAt = store.Now()

	doc := adminDoc{
		ID:        primitive.NewObjectID(),
		Name:      admin.Name,
		Email:     admin.Email,
		Password:  admin.PasswordHash,
		Role:      string(admin.Role),
		LastLogin: admin.LastLogin,
		CreatedAt: admin.CreatedAt,
	}
	if _, err := s.admins.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetAdminByID(ctx context.Context, id string) (*model.Admin, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOne().SetProjection(bson.D{{Key: "password", Value: 0}})
	var doc adminDoc
	if err := s.admins.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	a := doc.toModel()
	return &a, nil
}

func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var doc adminDoc
	err := s.admins.FindOne(ctx, bson.M{"email": store.NormalizeEmail(email)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get admin by email: %w", err)
	}
	a := doc.toModel()
	return &a, nil
}

func (s *Store) ListAdmins(ctx context.Context) ([]model.Admin, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "password", Value: 0}}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.admins.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	var docs []adminDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode admins: %w", err)
	}
	admins := make([]model.Admin, 0, len(docs))
	for _, d := range docs {
		admins = append(admins, d.toModel())
	}
	return admins, nil
}

func (s *Store) CountAdminsByRole(ctx context.Context, role model.Role) (int, error) {
	n, err := s.admins.CountDocuments(ctx, bson.M{"role": string(role)})
	if err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return int(n), nil
}

func (s *Store) UpdateAdminLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.admins.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"lastLogin": at.UTC()}})
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Donations
// ---------------------------------------------------------------------------

func (s *Store) CreateDonation(ctx context.Context, d *model.Donation) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = store.Now()
	}
	doc := donationDoc{
		ID:         primitive.NewObjectID(),
		DonorName:  d.DonorName,
		Email:      d.Email,
		TabletName: d.TabletName,
		ExpiryDate: d.ExpiryDate,
		Unopened:   d.Unopened,
		Verified:   d.Verified,
		CreatedAt:  d.CreatedAt,
	}
	if _, err := s.donations.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	d.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetDonation(ctx context.Context, id string) (*model.Donation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc donationDoc
	if err := s.donations.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get donation: %w", err)
	}
	d := doc.toModel()
	return &d, nil
}

func (s *Store) ListDonations(ctx context.Context) ([]model.Donation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.donations.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	var docs []donationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode donations: %w", err)
	}
	donations := make([]model.Donation, 0, len(docs))
	for _, d := range docs {
		donations = append(donations, d.toModel())
	}
	return donations, nil
}

func (s *Store) VerifyDonation(ctx context.Context, id string) (*model.Donation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc donationDoc
	err = s.donations.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"verified": true}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("verify donation: %w", err)
	}
	d := doc.toModel()
	return &d, nil
}

func (s *Store) DeleteDonation(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.donations.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Factory is a store.Factory for MongoDB.
func Factory(ctx context.Context, cfg config.DatabaseConfig) (store.Store, error) {
	return Open(ctx, cfg.URL, cfg.Name)
}
