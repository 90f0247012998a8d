package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/alexanderramin/termplan/internal/codec"
	"github.com/alexanderramin/termplan/internal/repository"
)

const termPlanCollection = "term_plans"

// termPlanDoc is the stored shape. Data is kept as a JSON string, the
// legacy form every reader already understands.
type termPlanDoc struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	AcademicTerm string    `bson:"academic_term"`
	TermType     string    `bson:"term_type"`
	TermYear     int       `bson:"term_year"`
	Goals        []string  `bson:"goals"`
	Data         string    `bson:"data"`
	Version      int64     `bson:"version"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// TermPlanRepo implements repository.TermPlanRepo on a MongoDB collection.
type TermPlanRepo struct {
	collection *mongo.Collection
}

var _ repository.TermPlanRepo = (*TermPlanRepo)(nil)

// NewTermPlanRepo creates a TermPlanRepo over db's term_plans collection.
func NewTermPlanRepo(db *mongo.Database) *TermPlanRepo {
	return &TermPlanRepo{collection: db.Collection(termPlanCollection)}
}

// EnsureIndexes creates the per-user lookup index. Call during startup.
func (r *TermPlanRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating term_plans index: %w", err)
	}
	return nil
}

func (r *TermPlanRepo) GetByID(ctx context.Context, id string) (*codec.Record, error) {
	var doc termPlanDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("term plan %s: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("finding term plan %s: %w", id, err)
	}
	return doc.record(), nil
}

func (r *TermPlanRepo) Create(ctx context.Context, rec *codec.Record) error {
	now := time.Now().UTC()
	doc := newDoc(rec, now)
	doc.CreatedAt = now
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("term plan %s: %w", rec.ID, repository.ErrConflict)
		}
		return fmt.Errorf("inserting term plan: %w", err)
	}
	rec.UpdatedAt = now
	return nil
}

// Upsert replaces the document matching both id and owner. When the id
// exists under another owner the implied insert collides on _id, which is
// reported as ErrForbidden. The stored version never goes backwards; see
// upsertPipeline.
func (r *TermPlanRepo) Upsert(ctx context.Context, rec *codec.Record) (*codec.Record, error) {
	filter := bson.M{"_id": rec.ID, "user_id": rec.UserID}
	update := upsertPipeline(rec, time.Now().UTC())
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc termPlanDoc
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("term plan %s: %w", rec.ID, repository.ErrForbidden)
		}
		return nil, fmt.Errorf("upserting term plan %s: %w", rec.ID, err)
	}
	return doc.record(), nil
}

func (r *TermPlanRepo) ListByUser(ctx context.Context, userID string) ([]*codec.Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing term plans: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []termPlanDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding term plans: %w", err)
	}
	records := make([]*codec.Record, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].record())
	}
	return records, nil
}

// upsertPipeline builds the update as an aggregation pipeline so the new
// version can be computed from the stored one in the same round trip:
// max(incoming, stored+1), or incoming on insert. Caller-supplied values are
// wrapped in $literal so a leading "$" is never read as a field path.
func upsertPipeline(rec *codec.Record, now time.Time) mongo.Pipeline {
	version := bson.M{"$max": bson.A{
		rec.Version,
		bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$version", rec.Version - 1}}, 1}},
	}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "academic_term", Value: bson.M{"$literal": rec.AcademicTerm}},
			{Key: "term_type", Value: bson.M{"$literal": rec.TermType}},
			{Key: "term_year", Value: rec.TermYear},
			{Key: "goals", Value: bson.M{"$literal": nonNil(rec.Goals)}},
			{Key: "data", Value: bson.M{"$literal": dataString(rec.Data)}},
			{Key: "version", Value: version},
			{Key: "updated_at", Value: now},
			{Key: "created_at", Value: bson.M{"$ifNull": bson.A{"$created_at", now}}},
		}}},
	}
}

func newDoc(rec *codec.Record, now time.Time) termPlanDoc {
	return termPlanDoc{
		ID:           rec.ID,
		UserID:       rec.UserID,
		AcademicTerm: rec.AcademicTerm,
		TermType:     rec.TermType,
		TermYear:     rec.TermYear,
		Goals:        nonNil(rec.Goals),
		Data:         dataString(rec.Data),
		Version:      rec.Version,
		UpdatedAt:    now,
	}
}

func (d termPlanDoc) record() *codec.Record {
	data, _ := json.Marshal(d.Data)
	return &codec.Record{
		ID:           d.ID,
		UserID:       d.UserID,
		AcademicTerm: d.AcademicTerm,
		TermType:     d.TermType,
		TermYear:     d.TermYear,
		Goals:        nonNil(d.Goals),
		Data:         data,
		Version:      d.Version,
		UpdatedAt:    d.UpdatedAt,
	}
}

func dataString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "{}"
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
