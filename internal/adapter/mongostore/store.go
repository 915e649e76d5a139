// Package mongostore backs the service's storage interfaces with MongoDB.
// Reports and profiles map 1:1 onto documents via the domain structs' bson
// tags; the report id doubles as the document _id so upserts stay idempotent.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/oceanwatch/hazard-report-service/internal/domain"
	"github.com/oceanwatch/hazard-report-service/internal/service"
)

// opTimeout bounds every single-document operation.
const opTimeout = 5 * time.Second

// Store implements service.ReportStore and service.ProfileStore on MongoDB.
type Store struct {
	client   *mongo.Client
	reports  *mongo.Collection
	profiles *mongo.Collection
}

// New connects to MongoDB and prepares the collections and indexes.
func New(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		reports:  db.Collection("reports"),
		profiles: db.Collection("profiles"),
	}

	// The guard lists by hazard type and the API lists in insertion order.
	_, err = s.reports.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reportedAt", Value: 1}}},
		{Keys: bson.D{{Key: "hazardType", Value: 1}, {Key: "reportedAt", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("create report indexes: %w", err)
	}
	return s, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Insert stores a new report document.
func (s *Store) Insert(ctx context.Context, r domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := s.reports.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("insert report %s: %w", r.ID, err)
	}
	return nil
}

// Get returns a report by id.
func (s *Store) Get(ctx context.Context, id string) (domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var r domain.Report
	err := s.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Report{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("find report %s: %w", id, err)
	}
	return r, nil
}

// List returns reports matching the filter, oldest first. ReportedAt order
// matches insertion order because reports are immutable after creation.
func (s *Store) List(ctx context.Context, f service.Filter) ([]domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	filter := bson.M{}
	if f.HazardType != "" {
		filter["hazardType"] = f.HazardType
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Severity != "" {
		filter["severity"] = f.Severity
	}

	opts := options.Find().SetSort(bson.D{{Key: "reportedAt", Value: 1}})
	cur, err := s.reports.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]domain.Report, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return out, nil
}

// Update replaces an existing report document.
func (s *Store) Update(ctx context.Context, r domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.reports.ReplaceOne(ctx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return fmt.Errorf("update report %s: %w", r.ID, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Profiles adapts the store to the service.ProfileStore interface.
func (s *Store) Profiles() service.ProfileStore { return profileStore{s} }

type profileStore struct{ s *Store }

func (p profileStore) Get(ctx context.Context, userID string) (domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var profile domain.Profile
	err := p.s.profiles.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.Profile{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("find profile %s: %w", userID, err)
	}
	return profile, nil
}

func (p profileStore) Save(ctx context.Context, profile domain.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.Replace().SetUpsert(true)
	if _, err := p.s.profiles.ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts); err != nil {
		return fmt.Errorf("save profile %s: %w", profile.UserID, err)
	}
	return nil
}
