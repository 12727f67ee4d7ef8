package db

import (
	"context"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEventCollection implements MaintenanceEventCollection for MongoDB.
type MongoEventCollection struct {
	Collection *mongo.Collection
}

// InsertEvent inserts a maintenance event into the collection.
func (c *MongoEventCollection) InsertEvent(ctx context.Context, event models.MaintenanceEvent) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.InsertOne(ctx, event)
	return err
}

// FindEvents returns the events logged against any of equipmentIDs, newest first.
func (c *MongoEventCollection) FindEvents(ctx context.Context, equipmentIDs ...string) ([]models.MaintenanceEvent, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	if len(equipmentIDs) == 0 {
		return []models.MaintenanceEvent{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, byEquipment(equipmentIDs), opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.MaintenanceEvent](ctx, cursor)
}

// FindEventByID finds a maintenance event by its ID.
func (c *MongoEventCollection) FindEventByID(ctx context.Context, id string) (*models.MaintenanceEvent, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var event models.MaintenanceEvent
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&event); err != nil {
		return nil, notFound(err)
	}
	return &event, nil
}

// UpdateEvent replaces the stored event with the same ID.
func (c *MongoEventCollection) UpdateEvent(ctx context.Context, event models.MaintenanceEvent) error {
	if c.Collection == nil {
		return errNilCollection
	}
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": event.ID}, event)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEvent deletes a maintenance event by its ID.
func (c *MongoEventCollection) DeleteEvent(ctx context.Context, id string) error {
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

// DeleteEventsForEquipment removes the whole maintenance log of one piece of equipment.
func (c *MongoEventCollection) DeleteEventsForEquipment(ctx context.Context, equipmentID string) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.DeleteMany(ctx, bson.M{"equipment_id": equipmentID})
	return err
}
