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

// Users is the user collection repository.
type Users struct {
	c *mongo.Collection
}

// NewUsers creates the user repository.
func NewUsers(db *infrastructure.Database) *Users {
	return &Users{c: db.Collection(infrastructure.CollectionUsers)}
}

// ByID fetches a user by document id.
func (r *Users) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.c.FindOne(ctx, idFilter(id)).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	return &u, nil
}

// ByDiscordID fetches a user by external identity.
func (r *Users) ByDiscordID(ctx context.Context, discordID string) (*domain.User, error) {
	var u domain.User
	err := r.c.FindOne(ctx, bson.M{"discord_id": discordID}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user by discord id: %w", err)
	}
	return &u, nil
}

// ManyByIDs fetches users for reference expansion. Missing ids are
// silently skipped; weak references may dangle.
func (r *Users) ManyByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.c.Find(ctx, bson.M{"_id": stringIn(ids)})
	if err != nil {
		return nil, fmt.Errorf("find users by ids: %w", err)
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Find lists users matching the AND of the filter's conditions.
func (r *Users) Find(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	var conditions []bson.M
	if len(f.Search) > 0 {
		conditions = append(conditions, bson.M{"username": containsIn(f.Search)})
	}
	if len(f.JoinedClans) > 0 {
		conditions = append(conditions, bson.M{"joined_clans": stringIn(f.JoinedClans)})
	}
	if len(f.DiscordIDs) > 0 {
		conditions = append(conditions, bson.M{"discord_id": stringIn(f.DiscordIDs)})
	}
	if len(f.IDs) > 0 {
		conditions = append(conditions, bson.M{"_id": stringIn(f.IDs)})
	}
	if len(f.Roles) > 0 {
		conditions = append(conditions, bson.M{"role": stringIn(f.Roles)})
	}

	query := bson.M{}
	if len(conditions) > 0 {
		query = bson.M{"$and": conditions}
	}

	cur, err := r.c.Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	var users []domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// Insert stores a new user and returns its id.
func (r *Users) Insert(ctx context.Context, u *domain.User) (string, error) {
	u.ID = newID()
	if u.CreatedAt == 0 {
		u.CreatedAt = time.Now().Unix()
	}
	if _, err := r.c.InsertOne(ctx, u); err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return u.ID, nil
}

// UpsertByDiscordID creates or refreshes the profile on OAuth login and
// returns the stored document. Role, banned and profile fields the user
// edited are untouched.
func (r *Users) UpsertByDiscordID(ctx context.Context, discordID, username, avatar string) (*domain.User, error) {
	after := options.After
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(after)

	update := bson.M{
		"$set": bson.M{
			"username": username,
			"avatar":   avatar,
		},
		"$setOnInsert": bson.M{
			"_id":          newID(),
			"discord_id":   discordID,
			"role":         domain.RoleUser,
			"banned":       false,
			"bio":          "",
			"socials":      []domain.SocialLink{},
			"joined_clans": []string{},
			"created_at":   time.Now().Unix(),
		},
	}

	var u domain.User
	err := r.c.FindOneAndUpdate(ctx, bson.M{"discord_id": discordID}, update, opts).Decode(&u)
	if err != nil {
		return nil, fmt.Errorf("upsert user by discord id: %w", err)
	}
	return &u, nil
}

// Apply executes delta operations against a single user document.
func (r *Users) Apply(ctx context.Context, id string, deltas ...repository.Delta) error {
	update, err := updateDoc(deltas)
	if err != nil {
		return fmt.Errorf("build user update: %w", err)
	}
	res, err := r.c.UpdateOne(ctx, idFilter(id), update)
	if err != nil {
		return fmt.Errorf("update user %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a user document. Irreversible.
func (r *Users) Delete(ctx context.Context, id string) error {
	res, err := r.c.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
