package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/prohmpiriya/event-planner/internal/domain"
)

const (
	// EventsCollection holds one document per event, keyed by the event id
	EventsCollection = "events"
	// ChangeLogsCollection holds the append-only audit trail
	ChangeLogsCollection = "changelogs"
)

// MongoEventRepository implements EventRepository on a MongoDB collection
type MongoEventRepository struct {
	coll *mongo.Collection
}

// NewMongoEventRepository creates a new MongoEventRepository
func NewMongoEventRepository(db *mongo.Database) *MongoEventRepository {
	return &MongoEventRepository{coll: db.Collection(EventsCollection)}
}

// EnsureIndexes creates the indexes List relies on
func (r *MongoEventRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create events index: %w", err)
	}
	return nil
}

// Create inserts a new event document
func (r *MongoEventRepository) Create(ctx context.Context, event *domain.Event) error {
	if _, err := r.coll.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// GetByID retrieves an event by ID
func (r *MongoEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	var event domain.Event
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find event: %w", err)
	}
	return &event, nil
}

// List returns every event ordered by creation time
func (r *MongoEventRepository) List(ctx context.Context) ([]*domain.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*domain.Event{}
	for cursor.Next(ctx) {
		var event domain.Event
		if err := cursor.Decode(&event); err != nil {
			return nil, fmt.Errorf("failed to decode event: %w", err)
		}
		events = append(events, &event)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// Patch applies patch with a single pipeline update so concurrent patches
// of different fields do not overwrite each other. Compound fields are set
// with dotted paths and the projection totals are recomputed server side.
// The pre-image comes back from the same round trip.
func (r *MongoEventRepository) Patch(ctx context.Context, id string, patch *domain.EventPatch, updatedAt time.Time) (*domain.Event, *domain.Event, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before domain.Event
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, patchPipeline(patch, updatedAt), opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to patch event: %w", err)
	}

	after := domain.ApplyPatch(&before, patch)
	after.UpdatedAt = updatedAt
	return &before, after, nil
}

// patchPipeline translates patch into aggregation stages. Values are taken
// from the patch applied to an empty event so they match ApplyPatch.
func patchPipeline(patch *domain.EventPatch, updatedAt time.Time) mongo.Pipeline {
	v := domain.ApplyPatch(&domain.Event{}, patch)
	set := bson.D{}
	add := func(present bool, key string, value any) {
		if present {
			set = append(set, bson.E{Key: key, Value: bson.D{{Key: "$literal", Value: value}}})
		}
	}

	add(patch.Name != nil, "name", v.Name)
	add(patch.Type != nil, "type", v.Type)
	add(patch.Date != nil, "date", v.Date)
	add(patch.Venue != nil, "venue", v.Venue)
	add(patch.Budget != nil, "budget", v.Budget)
	add(patch.ContractSigned != nil, "contractSigned", v.ContractSigned)
	add(patch.Contract != nil, "contract", v.Contract)
	add(patch.PreviousExperience != nil, "previousExperience", v.PreviousExperience)
	add(patch.Resources != nil, "resources", v.Resources)
	add(patch.MainContact != nil, "mainContact", v.MainContact)
	add(patch.Status != nil, "status", v.Status)
	add(patch.Progress != nil, "progress", v.Progress)
	add(patch.IsRecurring != nil, "isRecurring", v.IsRecurring)
	add(patch.RecurringConfig != nil, "recurringConfig", v.RecurringConfig)
	add(patch.CalendarIntegrations != nil, "calendarIntegrations", v.CalendarIntegrations)
	if sp := patch.SalesProjection; sp != nil {
		add(sp.EstimatedTickets != nil, "salesProjection.estimatedTickets", v.SalesProjection.EstimatedTickets)
		add(sp.AverageTicketPrice != nil, "salesProjection.averageTicketPrice", v.SalesProjection.AverageTicketPrice)
		add(sp.Costs != nil, "salesProjection.costs", v.SalesProjection.Costs)
	}
	if tp := patch.Ticketing; tp != nil {
		add(tp.SaleMode != nil, "ticketing.saleMode", v.Ticketing.SaleMode)
		add(tp.BoxOffices != nil, "ticketing.boxOffices", v.Ticketing.BoxOffices)
	}
	if ap := patch.AccessControl; ap != nil {
		add(ap.Method != nil, "accessControl.method", v.AccessControl.Method)
		add(ap.Equipment != nil, "accessControl.equipment", v.AccessControl.Equipment)
		add(ap.Staff != nil, "accessControl.staff", v.AccessControl.Staff)
		add(ap.Internet != nil, "accessControl.internet", v.AccessControl.Internet)
	}
	add(true, "updatedAt", updatedAt)

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	if patch.SalesProjection != nil {
		pipeline = append(pipeline, projectionTotalsStages()...)
	}
	return pipeline
}

// projectionTotalsStages mirrors SalesProjection.Recompute on the stored document
func projectionTotalsStages() []bson.D {
	field := func(path string) bson.D {
		return bson.D{{Key: "$ifNull", Value: bson.A{"$salesProjection." + path, 0}}}
	}
	return []bson.D{
		{{Key: "$set", Value: bson.D{
			{Key: "salesProjection.totalRevenue", Value: bson.D{{Key: "$multiply", Value: bson.A{
				field("estimatedTickets"), field("averageTicketPrice"),
			}}}},
			{Key: "salesProjection.totalCosts", Value: bson.D{{Key: "$add", Value: bson.A{
				field("costs.ticketing"), field("costs.accommodation"),
				field("costs.fuel"), field("costs.accessControl"),
			}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "salesProjection.projectedProfit", Value: bson.D{{Key: "$subtract", Value: bson.A{
				"$salesProjection.totalRevenue", "$salesProjection.totalCosts",
			}}}},
		}}},
	}
}

// SetContractDocument sets the contract document fields with dotted paths,
// leaving the rest of the contract untouched
func (r *MongoEventRepository) SetContractDocument(ctx context.Context, id string, doc domain.ContractDocument) error {
	result, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"contract.documentUrl":  doc.DocumentURL,
			"contract.documentName": doc.DocumentName,
			"contract.uploadedAt":   doc.UploadedAt,
			"updatedAt":             time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set contract document: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes the event document
func (r *MongoEventRepository) Delete(ctx context.Context, id string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MongoChangeLogRepository implements ChangeLogRepository on a MongoDB collection
type MongoChangeLogRepository struct {
	coll *mongo.Collection
}

// NewMongoChangeLogRepository creates a new MongoChangeLogRepository
func NewMongoChangeLogRepository(db *mongo.Database) *MongoChangeLogRepository {
	return &MongoChangeLogRepository{coll: db.Collection(ChangeLogsCollection)}
}

// EnsureIndexes creates the per-event lookup index
func (r *MongoChangeLogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "eventId", Value: 1}, {Key: "timestamp", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create changelog index: %w", err)
	}
	return nil
}

// Append inserts entries in order
func (r *MongoChangeLogRepository) Append(ctx context.Context, entries ...domain.ChangeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	docs := make([]any, len(entries))
	for i, e := range entries {
		docs[i] = e
	}
	if _, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		return fmt.Errorf("failed to append changelog: %w", err)
	}
	return nil
}

// ListByEvent returns the entries of eventID, oldest first
func (r *MongoChangeLogRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.ChangeLogEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{"eventId": eventID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list changelog: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []domain.ChangeLogEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode changelog: %w", err)
	}
	return entries, nil
}
