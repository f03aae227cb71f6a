package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"clanhub.gg/clanhub/internal/domain"
	"clanhub.gg/clanhub/internal/infrastructure"
	"clanhub.gg/clanhub/internal/repository"
)

// applicationQuery translates the shared application filter.
func applicationQuery(f domain.ApplicationFilter) bson.M {
	var conditions []bson.M
	if len(f.IDs) > 0 {
		conditions = append(conditions, bson.M{"_id": stringIn(f.IDs)})
	}
	if len(f.SubmittedBy) > 0 {
		conditions = append(conditions, bson.M{"submitted_by": stringIn(f.SubmittedBy)})
	}
	if len(f.ClanIDs) > 0 {
		conditions = append(conditions, bson.M{"clan_id": stringIn(f.ClanIDs)})
	}
	if len(f.Statuses) > 0 {
		conditions = append(conditions, bson.M{"status": containsIn(f.Statuses)})
	}
	if len(conditions) == 0 {
		return bson.M{}
	}
	return bson.M{"$and": conditions}
}

// FederationApplications is the federation application repository.
type FederationApplications struct {
	c *mongo.Collection
}

// NewFederationApplications creates the repository.
func NewFederationApplications(db *infrastructure.Database) *FederationApplications {
	return &FederationApplications{c: db.Collection(infrastructure.CollectionFederationApplications)}
}

// ByID fetches an application by document id.
func (r *FederationApplications) ByID(ctx context.Context, id string) (*domain.FederationApplication, error) {
	var app domain.FederationApplication
	err := r.c.FindOne(ctx, idFilter(id)).Decode(&app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find federation application %s: %w", id, err)
	}
	return &app, nil
}

// Find lists applications matching the filter.
func (r *FederationApplications) Find(ctx context.Context, f domain.ApplicationFilter) ([]domain.FederationApplication, error) {
	cur, err := r.c.Find(ctx, applicationQuery(f))
	if err != nil {
		return nil, fmt.Errorf("find federation applications: %w", err)
	}
	var apps []domain.FederationApplication
	if err := cur.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decode federation applications: %w", err)
	}
	return apps, nil
}

// CountActiveForClan counts non-deleted applications for a clan. The
// one-per-clan invariant rides on this check-then-insert; the race is
// accepted.
func (r *FederationApplications) CountActiveForClan(ctx context.Context, clanID string) (int, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{
		"clan_id": clanID,
		"status":  bson.M{"$ne": domain.FederationDeleted},
	})
	if err != nil {
		return 0, fmt.Errorf("count active applications for clan: %w", err)
	}
	return int(n), nil
}

// CountPendingBySubmitter counts applied/in_review applications the user
// holds across all clans.
func (r *FederationApplications) CountPendingBySubmitter(ctx context.Context, userID string) (int, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{
		"submitted_by": userID,
		"status": bson.M{"$in": []domain.FederationStatus{
			domain.FederationApplied, domain.FederationInReview,
		}},
	})
	if err != nil {
		return 0, fmt.Errorf("count pending applications by submitter: %w", err)
	}
	return int(n), nil
}

// Insert stores a new application and returns its id.
func (r *FederationApplications) Insert(ctx context.Context, app *domain.FederationApplication) (string, error) {
	app.ID = newID()
	if app.CreatedAt == 0 {
		app.CreatedAt = time.Now().Unix()
	}
	if _, err := r.c.InsertOne(ctx, app); err != nil {
		return "", fmt.Errorf("insert federation application: %w", err)
	}
	return app.ID, nil
}

// SetStatus overwrites the application status.
func (r *FederationApplications) SetStatus(ctx context.Context, id string, status domain.FederationStatus) error {
	res, err := r.c.UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return fmt.Errorf("set federation application status: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// MembershipApplications is the membership application repository.
type MembershipApplications struct {
	c *mongo.Collection
}

// NewMembershipApplications creates the repository.
func NewMembershipApplications(db *infrastructure.Database) *MembershipApplications {
	return &MembershipApplications{c: db.Collection(infrastructure.CollectionMembershipApplications)}
}

// ByID fetches an application by document id.
func (r *MembershipApplications) ByID(ctx context.Context, id string) (*domain.MembershipApplication, error) {
	var app domain.MembershipApplication
	err := r.c.FindOne(ctx, idFilter(id)).Decode(&app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find membership application %s: %w", id, err)
	}
	return &app, nil
}

// Find lists applications matching the filter.
func (r *MembershipApplications) Find(ctx context.Context, f domain.ApplicationFilter) ([]domain.MembershipApplication, error) {
	cur, err := r.c.Find(ctx, applicationQuery(f))
	if err != nil {
		return nil, fmt.Errorf("find membership applications: %w", err)
	}
	var apps []domain.MembershipApplication
	if err := cur.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decode membership applications: %w", err)
	}
	return apps, nil
}

// LatestFor returns the most recent application for (clan, submitter), or
// nil when none exists.
func (r *MembershipApplications) LatestFor(ctx context.Context, clanID, userID string) (*domain.MembershipApplication, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	var app domain.MembershipApplication
	err := r.c.FindOne(ctx, bson.M{"clan_id": clanID, "submitted_by": userID}, opts).Decode(&app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find latest membership application: %w", err)
	}
	return &app, nil
}

// Insert stores a new application and returns its id.
func (r *MembershipApplications) Insert(ctx context.Context, app *domain.MembershipApplication) (string, error) {
	app.ID = newID()
	if app.CreatedAt == 0 {
		app.CreatedAt = time.Now().Unix()
	}
	if _, err := r.c.InsertOne(ctx, app); err != nil {
		return "", fmt.Errorf("insert membership application: %w", err)
	}
	return app.ID, nil
}

// SetStatus overwrites status and the denied_at stamp together.
func (r *MembershipApplications) SetStatus(ctx context.Context, id string, status domain.MembershipStatus, deniedAt int64) error {
	res, err := r.c.UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M{
		"status":    status,
		"denied_at": deniedAt,
	}})
	if err != nil {
		return fmt.Errorf("set membership application status: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
