package station

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CollectionName is the MongoDB collection holding station documents.
const CollectionName = "stations"

// stationDocument is the persisted shape of a station.
type stationDocument struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Name     string             `bson:"name"`
	Location GeoPoint           `bson:"location"`
	Status   Status             `bson:"status"`
	Reviews  []reviewDocument   `bson:"reviews"`
	Version  int64              `bson:"version"`
}

// reviewDocument is the persisted shape of an embedded review. Documents
// written by earlier releases carry an ObjectID under _id and no counters.
type reviewDocument struct {
	LegacyID  primitive.ObjectID `bson:"_id,omitempty"`
	ID        string             `bson:"id,omitempty"`
	Username  string             `bson:"username"`
	Text      string             `bson:"text"`
	Status    Status             `bson:"status"`
	Timestamp time.Time          `bson:"timestamp"`
	Upvotes   int                `bson:"upvotes"`
	Downvotes int                `bson:"downvotes"`
	Voters    []Vote             `bson:"voters"`
}

// MongoRepository is a MongoDB implementation of Repository.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a new MongoDB station repository.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the 2dsphere index on location.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	})
	if err != nil {
		return fmt.Errorf("create location index: %w", err)
	}
	return nil
}

// List retrieves all stations.
func (r *MongoRepository) List(ctx context.Context) ([]*Station, error) {
	cursor, err := r.coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}

	var docs []stationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	stations := make([]*Station, 0, len(docs))
	for i := range docs {
		stations = append(stations, docs[i].toStation())
	}
	return stations, nil
}

// Get retrieves a station by ID. IDs that are not valid ObjectIDs never
// resolve.
func (r *MongoRepository) Get(ctx context.Context, id string) (*Station, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrStationNotFound
	}

	var doc stationDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStationNotFound
		}
		return nil, err
	}
	return doc.toStation(), nil
}

// Insert stores new stations.
func (r *MongoRepository) Insert(ctx context.Context, stations ...*Station) error {
	if len(stations) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(stations))
	for _, st := range stations {
		if st.ID == "" {
			st.ID = primitive.NewObjectID().Hex()
		}
		if st.Status == "" {
			st.Status = StatusWorking
		}
		doc, err := newStationDocument(st)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	_, err := r.coll.InsertMany(ctx, docs)
	return err
}

// Update replaces a station when its version matches.
func (r *MongoRepository) Update(ctx context.Context, st *Station) error {
	doc, err := newStationDocument(st)
	if err != nil {
		return err
	}
	doc.Version = st.Version + 1

	result, err := r.coll.ReplaceOne(ctx, versionFilter(doc.ID, st.Version), doc)
	if err != nil {
		return err
	}

	if result.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrStationNotFound
		}
		return ErrVersionConflict
	}

	st.Version = doc.Version
	return nil
}

// versionFilter matches the station only at the given version. Version 0
// also matches seeded documents that predate the version field.
func versionFilter(id primitive.ObjectID, version int64) bson.M {
	if version == 0 {
		return bson.M{"_id": id, "$or": bson.A{
			bson.M{"version": 0},
			bson.M{"version": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"_id": id, "version": version}
}

// DeleteAll removes every station.
func (r *MongoRepository) DeleteAll(ctx context.Context) error {
	_, err := r.coll.DeleteMany(ctx, bson.D{})
	return err
}

func newStationDocument(st *Station) (*stationDocument, error) {
	oid, err := primitive.ObjectIDFromHex(st.ID)
	if err != nil {
		return nil, fmt.Errorf("station id %q: %w", st.ID, err)
	}

	reviews := make([]reviewDocument, 0, len(st.Reviews))
	for _, rv := range st.Reviews {
		voters := rv.Voters
		if voters == nil {
			voters = []Vote{}
		}
		reviews = append(reviews, reviewDocument{
			ID:        rv.ID,
			Username:  rv.Username,
			Text:      rv.Text,
			Status:    rv.Status,
			Timestamp: rv.Timestamp,
			Upvotes:   rv.Upvotes,
			Downvotes: rv.Downvotes,
			Voters:    voters,
		})
	}

	return &stationDocument{
		ID:       oid,
		Name:     st.Name,
		Location: st.Location,
		Status:   st.Status,
		Reviews:  reviews,
		Version:  st.Version,
	}, nil
}

func (d *stationDocument) toStation() *Station {
	st := &Station{
		ID:       d.ID.Hex(),
		Name:     d.Name,
		Location: d.Location,
		Status:   d.Status,
		Reviews:  make([]Review, 0, len(d.Reviews)),
		Version:  d.Version,
	}
	if st.Status == "" {
		st.Status = StatusWorking
	}

	for _, rd := range d.Reviews {
		rv := Review{
			ID:        rd.ID,
			Username:  rd.Username,
			Text:      rd.Text,
			Status:    rd.Status,
			Timestamp: rd.Timestamp,
			Upvotes:   rd.Upvotes,
			Downvotes: rd.Downvotes,
			Voters:    rd.Voters,
		}
		if rv.ID == "" && !rd.LegacyID.IsZero() {
			rv.ID = rd.LegacyID.Hex()
		}
		if rv.Voters == nil {
			rv.Voters = []Vote{}
		}
		Recount(&rv)
		st.Reviews = append(st.Reviews, rv)
	}
	return st
}

// Ensure MongoRepository implements Repository interface.
var _ Repository = (*MongoRepository)(nil)
