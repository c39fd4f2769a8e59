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

// MongoReminderCollection implements ReminderCollection for MongoDB.
type MongoReminderCollection struct {
	Collection *mongo.Collection
}

type mongoReminderCursor struct {
	cursor *mongo.Cursor
}

func (m *mongoReminderCursor) All(ctx context.Context, out interface{}) error {
	return m.cursor.All(ctx, out)
}

func (m *mongoReminderCursor) Close(ctx context.Context) error {
	return m.cursor.Close(ctx)
}

// InsertReminder inserts a reminder record into the collection.
func (c *MongoReminderCollection) InsertReminder(ctx context.Context, reminder models.Reminder) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	reminder.CreatedAt = time.Now()
	reminder.UpdatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, reminder)
	return err
}

// FindReminders queries reminder records from the collection.
func (c *MongoReminderCollection) FindReminders(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (ReminderCursor, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	return &mongoReminderCursor{cursor: cursor}, nil
}

// FindReminderByID finds a reminder by its ID.
func (c *MongoReminderCollection) FindReminderByID(ctx context.Context, id int64) (*models.Reminder, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}

	var reminder models.Reminder
	err := c.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&reminder)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("reminder not found")
		}
		return nil, err
	}
	return &reminder, nil
}

// UpdateReminder updates a reminder by its ID.
func (c *MongoReminderCollection) UpdateReminder(ctx context.Context, id int64, reminder models.Reminder) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	reminder.UpdatedAt = time.Now()
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": reminder})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("reminder not found")
	}
	return nil
}

// DeleteReminder deletes a reminder by its ID.
func (c *MongoReminderCollection) DeleteReminder(ctx context.Context, id int64) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("reminder not found")
	}
	return nil
}
