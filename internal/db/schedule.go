package db

import (
	"context"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoScheduleCollection implements ScheduleCollection for MongoDB.
type MongoScheduleCollection struct {
	Collection *mongo.Collection
}

// UpsertSchedule stores schedule as the one schedule of its type on its equipment,
// replacing the interval and baseline of an existing one. Baseline fields left nil are
// cleared.
func (c *MongoScheduleCollection) UpsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	now := time.Now()

	set := bson.M{
		"interval_unit":  schedule.IntervalUnit,
		"interval_value": schedule.IntervalValue,
		"updated_at":     now,
	}
	unset := bson.M{}
	baseline := map[string]interface{}{
		"last_service_date":     schedule.LastServiceDate,
		"last_service_distance": schedule.LastServiceDistance,
		"last_service_hours":    schedule.LastServiceHours,
	}
	for field, value := range baseline {
		if isNilPointer(value) {
			unset[field] = ""
		} else {
			set[field] = value
		}
	}

	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	filter := bson.M{"equipment_id": schedule.EquipmentID, "type": schedule.Type}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.MaintenanceSchedule
	if err := c.Collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, duplicate(err)
	}
	return &stored, nil
}

// FindSchedules returns the schedules attached to any of equipmentIDs.
func (c *MongoScheduleCollection) FindSchedules(ctx context.Context, equipmentIDs ...string) ([]models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if len(equipmentIDs) == 0 {
		return []models.MaintenanceSchedule{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.Collection.Find(ctx, byEquipment(equipmentIDs), opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.MaintenanceSchedule](ctx, cursor)
}

// FindScheduleByID finds a schedule by its ID.
func (c *MongoScheduleCollection) FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var schedule models.MaintenanceSchedule
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&schedule); err != nil {
		return nil, notFound(err)
	}
	return &schedule, nil
}

// DeleteSchedule deletes a schedule by its ID.
func (c *MongoScheduleCollection) DeleteSchedule(ctx context.Context, id string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := parseID(id)
	if err != nil {
		return err
	}
	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSchedulesForEquipment removes every schedule of one piece of equipment.
func (c *MongoScheduleCollection) DeleteSchedulesForEquipment(ctx context.Context, equipmentID string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{"equipment_id": equipmentID})
	return err
}

func isNilPointer(v interface{}) bool {
	switch p := v.(type) {
	case *time.Time:
		return p == nil
	case *float64:
		return p == nil
	default:
		return v == nil
	}
}
