package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	EquipmentCollectionName   = "equipment"
	MaintenanceCollectionName = "maintenance_events"
	ScheduleCollectionName    = "maintenance_schedules"
	UserCollectionName        = "users"
)

var (
	// ErrNotFound is returned when no document matches the given id.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate document")

	errNilCollection = errors.New("mongo collection is nil")
)

// ConnectMongo connects to MongoDB at uri and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// Store bundles the collections the service works against.
type Store struct {
	Equipment   *MongoEquipmentCollection
	Maintenance *MongoEventCollection
	Schedules   *MongoScheduleCollection
	Users       *MongoUserCollection
}

// NewStore wires the collections of database.
func NewStore(database *mongo.Database) *Store {
	return &Store{
		Equipment:   &MongoEquipmentCollection{Collection: database.Collection(EquipmentCollectionName)},
		Maintenance: &MongoEventCollection{Collection: database.Collection(MaintenanceCollectionName)},
		Schedules:   &MongoScheduleCollection{Collection: database.Collection(ScheduleCollectionName)},
		Users:       &MongoUserCollection{Collection: database.Collection(UserCollectionName)},
	}
}

// EnsureIndexes creates the indexes the queries and uniqueness rules rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.Equipment.Collection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		s.Maintenance.Collection: {
			{Keys: bson.D{{Key: "equipment_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		s.Schedules.Collection: {
			{
				Keys:    bson.D{{Key: "equipment_id", Value: 1}, {Key: "type", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		s.Users.Collection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}

// MongoEquipmentCollection implements EquipmentCollection for MongoDB.
type MongoEquipmentCollection struct {
	Collection *mongo.Collection
}

// InsertEquipment inserts an equipment record into the collection.
func (c *MongoEquipmentCollection) InsertEquipment(ctx context.Context, equipment models.Equipment) error {
	if c.Collection == nil {
		return errNilCollection
	}
	_, err := c.Collection.InsertOne(ctx, equipment)
	return err
}

// FindEquipment returns the equipment owned by ownerID, newest first.
func (c *MongoEquipmentCollection) FindEquipment(ctx context.Context, ownerID string) ([]models.Equipment, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"owner_id": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll[models.Equipment](ctx, cursor)
}

// FindEquipmentByID finds an equipment record by its ID.
func (c *MongoEquipmentCollection) FindEquipmentByID(ctx context.Context, id string) (*models.Equipment, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var equipment models.Equipment
	if err := c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&equipment); err != nil {
		return nil, notFound(err)
	}
	return &equipment, nil
}

// UpdateEquipment replaces the stored equipment with the same ID.
func (c *MongoEquipmentCollection) UpdateEquipment(ctx context.Context, equipment models.Equipment) error {
	if c.Collection == nil {
		return errNilCollection
	}
	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": equipment.ID}, equipment)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RaiseReadings moves the odometer and hour meter forward to the given values. A value
// lower than the stored reading is ignored, so readings never go backwards. It reports
// whether anything changed.
func (c *MongoEquipmentCollection) RaiseReadings(ctx context.Context, id string, distance, hours *float64) (bool, error) {
	if c.Collection == nil {
		return false, errNilCollection
	}
	objectID, err := parseID(id)
	if err != nil {
		return false, err
	}
	raise := bson.M{}
	if distance != nil {
		raise["current_distance"] = *distance
	}
	if hours != nil {
		raise["current_hours"] = *hours
	}
	if len(raise) == 0 {
		return false, nil
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$max": raise})
	if err != nil {
		return false, err
	}
	if result.MatchedCount == 0 {
		return false, ErrNotFound
	}
	if result.ModifiedCount == 0 {
		return false, nil
	}
	_, err = c.Collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": bson.M{"updated_at": time.Now()}})
	return true, err
}

// DeleteEquipment deletes an equipment record by its ID.
func (c *MongoEquipmentCollection) DeleteEquipment(ctx context.Context, id string) error {
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

func parseID(id string) (primitive.ObjectID, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, ErrNotFound)
	}
	return objectID, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func byEquipment(equipmentIDs []string) bson.M {
	if len(equipmentIDs) == 1 {
		return bson.M{"equipment_id": equipmentIDs[0]}
	}
	return bson.M{"equipment_id": bson.M{"$in": equipmentIDs}}
}

func decodeAll[T any](ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)
	out := make([]T, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
