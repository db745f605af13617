package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	scheduleerrors "bookline/internal/schedules/errors"
	"bookline/pkg/config"
	"bookline/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Schedules"

// ScheduleRepository is the persistence facade for schedule documents. The
// slot transition methods are guarded updates: they succeed only when the
// embedded slot is still in the expected state, which is what serializes
// concurrent bookings across horizontally scaled instances.
type ScheduleRepository interface {
	FindByScope(ctx context.Context, company, department, date string) (*model.Schedule, error)
	FindBySlotID(ctx context.Context, slotID string) (*model.Schedule, error)

	AppendSlot(ctx context.Context, company, department, date string, slot model.Slot) (*model.Schedule, bool, error)
	RemoveSlot(ctx context.Context, slotID string) error
	DeleteIfEmpty(ctx context.Context, id string) (bool, error)

	HoldSlot(ctx context.Context, slotID, customerID string) error
	ConfirmSlot(ctx context.Context, slotID, customerID string) error
	ReleaseSlot(ctx context.Context, slotID string) error
	FindStaleLocks(ctx context.Context, cutoff time.Time) ([]*model.Schedule, error)
}

type mongoScheduleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoScheduleRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoScheduleRepository) FindByScope(ctx context.Context, company, department, date string) (*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"company":    company,
		"department": department,
		"date":       date,
	}

	var schedule model.Schedule
	err := r.collection.FindOne(ctx, filter).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, scheduleerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule by scope: %w", err)
	}

	return &schedule, nil
}

func (r *mongoScheduleRepository) FindBySlotID(ctx context.Context, slotID string) (*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var schedule model.Schedule
	err := r.collection.FindOne(ctx, bson.M{"slots.id": slotID}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, scheduleerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find schedule by slot id: %w", err)
	}

	return &schedule, nil
}

// AppendSlot adds a slot to the scope's schedule in a single upserted
// push, creating the document when the scope has none. Sibling slots are
// never rewritten, so a hold landing concurrently keeps its state, and
// two concurrent creators both land their slot. The second return reports
// whether a new document was inserted.
func (r *mongoScheduleRepository) AppendSlot(ctx context.Context, company, department, date string, slot model.Slot) (*model.Schedule, bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"company":    company,
		"department": department,
		"date":       date,
	}
	update := bson.M{
		"$push": bson.M{"slots": slot},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID().Hex(),
			"created_at": time.Now().UTC().Truncate(time.Millisecond),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, fmt.Errorf("failed to append slot %s: %w", slot.ID, err)
	}

	schedule, err := r.FindByScope(ctx, company, department, date)
	if err != nil {
		return nil, false, err
	}
	return schedule, result.UpsertedCount > 0, nil
}

// RemoveSlot pulls a slot from its parent's list, guarded on the slot still
// being Available. A taken or absent slot leaves the document untouched and
// returns ErrPreconditionFailed.
func (r *mongoScheduleRepository) RemoveSlot(ctx context.Context, slotID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"slots": bson.M{"$elemMatch": bson.M{
			"id":     slotID,
			"status": model.SlotAvailable,
		}},
	}
	update := bson.M{"$pull": bson.M{"slots": bson.M{"id": slotID}}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to remove slot %s: %w", slotID, err)
	}
	if result.ModifiedCount == 0 {
		return scheduleerrors.ErrPreconditionFailed
	}
	return nil
}

// DeleteIfEmpty removes the schedule document only when its slot list is
// empty, reporting whether a delete happened.
func (r *mongoScheduleRepository) DeleteIfEmpty(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	// Ids are ObjectID hex stored as plain strings (AppendSlot mints them).
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return false, fmt.Errorf("%w: %s", scheduleerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":   id,
		"slots": bson.M{"$size": 0},
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete empty schedule: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// HoldSlot moves a slot Available -> Locked and records the customer. The
// filter matches on the current status, so of N concurrent callers exactly
// one observes a modification; the rest get ErrPreconditionFailed.
func (r *mongoScheduleRepository) HoldSlot(ctx context.Context, slotID, customerID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{
		"slots": bson.M{"$elemMatch": bson.M{
			"id":     slotID,
			"status": model.SlotAvailable,
		}},
	}
	update := bson.M{"$set": bson.M{
		"slots.$.status":      model.SlotLocked,
		"slots.$.customer_id": customerID,
		"slots.$.locked_at":   now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to hold slot %s: %w", slotID, err)
	}
	if result.ModifiedCount == 0 {
		return scheduleerrors.ErrPreconditionFailed
	}
	return nil
}

// ConfirmSlot finalizes Locked -> Booked, guarded on the holding customer.
func (r *mongoScheduleRepository) ConfirmSlot(ctx context.Context, slotID, customerID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"slots": bson.M{"$elemMatch": bson.M{
			"id":          slotID,
			"status":      model.SlotLocked,
			"customer_id": customerID,
		}},
	}
	update := bson.M{
		"$set":   bson.M{"slots.$.status": model.SlotBooked},
		"$unset": bson.M{"slots.$.locked_at": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to confirm slot %s: %w", slotID, err)
	}
	if result.ModifiedCount == 0 {
		return scheduleerrors.ErrPreconditionFailed
	}
	return nil
}

// ReleaseSlot reverts a Locked slot to Available, clearing the customer.
func (r *mongoScheduleRepository) ReleaseSlot(ctx context.Context, slotID string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"slots": bson.M{"$elemMatch": bson.M{
			"id":     slotID,
			"status": model.SlotLocked,
		}},
	}
	update := bson.M{
		"$set":   bson.M{"slots.$.status": model.SlotAvailable},
		"$unset": bson.M{"slots.$.customer_id": "", "slots.$.locked_at": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release slot %s: %w", slotID, err)
	}
	if result.ModifiedCount == 0 {
		return scheduleerrors.ErrPreconditionFailed
	}
	return nil
}

// FindStaleLocks returns schedules holding at least one slot locked before
// the cutoff; the sweeper decides per slot whether to revert.
func (r *mongoScheduleRepository) FindStaleLocks(ctx context.Context, cutoff time.Time) ([]*model.Schedule, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"slots": bson.M{"$elemMatch": bson.M{
			"status":    model.SlotLocked,
			"locked_at": bson.M{"$lt": cutoff},
		}},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale locks: %w", err)
	}
	defer cursor.Close(ctx)

	var schedules []*model.Schedule
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode stale lock schedules: %w", err)
	}
	return schedules, nil
}
