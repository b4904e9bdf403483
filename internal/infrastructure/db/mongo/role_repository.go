package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/auth-service/internal/core/domain"
)

// RoleRepository implements ports.RoleRepository.
type RoleRepository struct {
	roles *mongo.Collection
	users *mongo.Collection
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{
		roles: db.Collection(collectionRoles),
		users: db.Collection(collectionUsers),
	}
}

type roleDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	Permissions []string  `bson:"permissions"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func (d roleDoc) toDomain() *domain.Role {
	perms := d.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &domain.Role{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Permissions: perms,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := roleDoc{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		Permissions: role.Permissions,
		CreatedAt:   role.CreatedAt.UTC(),
		UpdatedAt:   role.UpdatedAt.UTC(),
	}
	if _, err := r.roles.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRoleNameTaken
		}
		return domain.StorageError("insert role", err)
	}
	return nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.roles.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, domain.StorageError("find role", err)
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.roles.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, domain.StorageError("list roles", err)
	}
	defer cursor.Close(ctx)

	var docs []roleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, domain.StorageError("decode roles", err)
	}
	roles := make([]*domain.Role, 0, len(docs))
	for _, d := range docs {
		roles = append(roles, d.toDomain())
	}
	return roles, nil
}

func (r *RoleRepository) Update(ctx context.Context, role *domain.Role) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":        role.Name,
		"description": role.Description,
		"permissions": role.Permissions,
		"updated_at":  role.UpdatedAt.UTC(),
	}}
	res, err := r.roles.UpdateOne(ctx, bson.M{"_id": role.ID}, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrRoleNameTaken
		}
		return domain.StorageError("update role", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// Delete removes the role and pulls its entries from every user's role
// history.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.roles.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return domain.StorageError("delete role", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	_, err = r.users.UpdateMany(ctx,
		bson.M{"role_history.role_id": id},
		bson.M{"$pull": bson.M{"role_history": bson.M{"role_id": id}}},
	)
	if err != nil {
		return domain.StorageError("pull role history", err)
	}
	return nil
}

// Assign sets the user's role and appends a history entry in one atomic
// single-document update.
func (r *RoleRepository) Assign(ctx context.Context, userID string, role *domain.Role, at time.Time) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entry := roleHistoryEntry{RoleID: role.ID, CreatedAt: at.UTC()}
	update := bson.M{
		"$set":  bson.M{"role": role.Name, "updated_at": at.UTC()},
		"$push": bson.M{"role_history": entry},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc userDoc
	if err := r.users.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("assign role", err)
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) Assignments(ctx context.Context, userID string) ([]domain.UserRoleAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	opts := options.FindOne().SetProjection(bson.M{"role_history": 1})
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("find role history", err)
	}
	out := make([]domain.UserRoleAssignment, 0, len(doc.RoleHistory))
	for _, h := range doc.RoleHistory {
		out = append(out, domain.UserRoleAssignment{UserID: userID, RoleID: h.RoleID, CreatedAt: h.CreatedAt.UTC()})
	}
	return out, nil
}
