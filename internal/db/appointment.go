package db

import (
	"context"
	"fmt"
	"time"

	"github.com/tallerapp/vehicle-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoAppointmentCollection implements AppointmentCollection for MongoDB.
type MongoAppointmentCollection struct {
	Collection *mongo.Collection
}

type mongoAppointmentCursor struct {
	cursor *mongo.Cursor
}

func (m *mongoAppointmentCursor) All(ctx context.Context, out interface{}) error {
	return m.cursor.All(ctx, out)
}

func (m *mongoAppointmentCursor) Close(ctx context.Context) error {
	return m.cursor.Close(ctx)
}

// InsertAppointment inserts an appointment record into the collection.
func (c *MongoAppointmentCollection) InsertAppointment(ctx context.Context, appointment models.Appointment) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, appointment)
	return err
}

// FindAppointments queries appointment records from the collection.
func (c *MongoAppointmentCollection) FindAppointments(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (AppointmentCursor, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &mongoAppointmentCursor{cursor: cursor}, nil
}

// FindAppointmentByID finds an appointment by its ID.
func (c *MongoAppointmentCollection) FindAppointmentByID(ctx context.Context, id int64) (*models.Appointment, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	var appointment models.Appointment
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("appointment not found")
		}
		return nil, err
	}
	return &appointment, nil
}

// UpdateAppointmentStatus moves an appointment through its lifecycle.
func (c *MongoAppointmentCollection) UpdateAppointmentStatus(ctx context.Context, id int64, status string) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	result, err := c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

// CompleteAppointment closes an appointment, recording the service outcome.
func (c *MongoAppointmentCollection) CompleteAppointment(ctx context.Context, id int64, completion models.AppointmentCompletion) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	set := bson.M{
		"status":     models.AppointmentCompleted,
		"updated_at": time.Now(),
	}
	if completion.KmAtService != nil {
		set["km_at_service"] = *completion.KmAtService
	}
	if models.IsKnownStatus(completion.VehicleStatus) {
		set["vehicle_status_at_service"] = string(completion.VehicleStatus)
	}
	if completion.FinalPrice != nil {
		set["final_price"] = *completion.FinalPrice
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}
