package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"clanhub.gg/clanhub/internal/domain"
	"clanhub.gg/clanhub/internal/infrastructure"
	"clanhub.gg/clanhub/internal/repository"
)

// Clans is the clan collection repository.
type Clans struct {
	c *mongo.Collection
}

// NewClans creates the clan repository.
func NewClans(db *infrastructure.Database) *Clans {
	return &Clans{c: db.Collection(infrastructure.CollectionClans)}
}

// ByID fetches a clan by document id.
func (r *Clans) ByID(ctx context.Context, id string) (*domain.Clan, error) {
	var cl domain.Clan
	err := r.c.FindOne(ctx, idFilter(id)).Decode(&cl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find clan %s: %w", id, err)
	}
	return &cl, nil
}

// Find lists clans matching the AND of the filter's conditions.
func (r *Clans) Find(ctx context.Context, f domain.ClanFilter) ([]domain.Clan, error) {
	var conditions []bson.M
	if len(f.Names) > 0 {
		conditions = append(conditions, bson.M{"name": containsIn(f.Names)})
	}
	if len(f.Tags) > 0 {
		conditions = append(conditions, bson.M{"tag": containsIn(f.Tags)})
	}
	if len(f.IDs) > 0 {
		conditions = append(conditions, bson.M{"_id": stringIn(f.IDs)})
	}
	if len(f.Owners) > 0 {
		conditions = append(conditions, bson.M{"owners": stringIn(f.Owners)})
	}
	if len(f.Categories) > 0 {
		conditions = append(conditions, bson.M{"categories": containsIn(f.Categories)})
	}
	if f.Approved != nil {
		conditions = append(conditions, bson.M{"approved": *f.Approved})
	}

	query := bson.M{}
	if len(conditions) > 0 {
		query = bson.M{"$and": conditions}
	}

	cur, err := r.c.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find clans: %w", err)
	}
	var clans []domain.Clan
	if err := cur.All(ctx, &clans); err != nil {
		return nil, fmt.Errorf("decode clans: %w", err)
	}
	return clans, nil
}

// CountByCreator returns how many clans the user has registered as lead
// creator.
func (r *Clans) CountByCreator(ctx context.Context, userID string) (int, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{"created_by": userID})
	if err != nil {
		return 0, fmt.Errorf("count clans by creator: %w", err)
	}
	return int(n), nil
}

// ExistsNameTag reports whether a clan with the exact (name, tag) pair
// already exists.
func (r *Clans) ExistsNameTag(ctx context.Context, name, tag string) (bool, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{"name": name, "tag": tag})
	if err != nil {
		return false, fmt.Errorf("count clans by name+tag: %w", err)
	}
	return n > 0, nil
}

// Insert stores a new clan and returns its id.
func (r *Clans) Insert(ctx context.Context, cl *domain.Clan) (string, error) {
	cl.ID = newID()
	now := time.Now().Unix()
	if cl.CreatedAt == 0 {
		cl.CreatedAt = now
	}
	cl.EditedAt = now
	if _, err := r.c.InsertOne(ctx, cl); err != nil {
		return "", fmt.Errorf("insert clan: %w", err)
	}
	return cl.ID, nil
}

// Apply executes delta operations against a single clan document and
// bumps edited_at.
func (r *Clans) Apply(ctx context.Context, id string, deltas ...repository.Delta) error {
	deltas = append(deltas, repository.ReplaceScalar("edited_at", time.Now().Unix()))
	update, err := updateDoc(deltas)
	if err != nil {
		return fmt.Errorf("build clan update: %w", err)
	}
	res, err := r.c.UpdateOne(ctx, idFilter(id), update)
	if err != nil {
		return fmt.Errorf("update clan %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a clan document.
func (r *Clans) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("delete clan %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
