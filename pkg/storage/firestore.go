package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/raterudder/froniuscollector/pkg/log"
	"github.com/raterudder/froniuscollector/pkg/types"
)

// docTimeLayout is fixed width so document IDs sort by time.
const docTimeLayout = "2006-01-02T15:04:05.000000Z"

// Firestore stores points in Google Cloud Firestore under
// installations/{installation}/measurements/{measurement}/points. The
// document ID starts with the timestamp which keeps range queries on the
// document ID without a composite index.
type Firestore struct {
	client       *firestore.Client
	projectID    string
	database     string
	installation string
}

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *Firestore {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")
	installation := lflag.String("firestore-installation", "default", "Installation document the points are stored under")

	f := &Firestore{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database
		f.installation = *installation

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *Firestore) Validate() error {
	if f.installation == "" {
		return errors.New("firestore-installation cannot be empty")
	}
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *Firestore) Init(ctx context.Context) error {
	projectID := f.projectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	database := f.database
	if database == "" {
		database = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, database)
	if err != nil {
		return fmt.Errorf("failed to create firestore client (project=%s, database=%s): %w", projectID, database, err)
	}
	f.client = client
	return nil
}

// Close closes the Firestore client connection.
func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *Firestore) getCollection(measurement string) (*firestore.CollectionRef, error) {
	if measurement == "" {
		return nil, fmt.Errorf("measurement cannot be empty")
	}
	return f.client.Collection("installations").Doc(f.installation).
		Collection("measurements").Doc(measurement).
		Collection("points"), nil
}

func pointDocID(p types.Point) string {
	return p.Time.UTC().Format(docTimeLayout) + "_" + url.PathEscape(p.Series())
}

type firestorePoint struct {
	Series string            `firestore:"series"`
	Tags   map[string]string `firestore:"tags"`
	Fields map[string]any    `firestore:"fields"`
	Time   time.Time         `firestore:"timestamp"`
}

// WritePoints stores every valid point with a BulkWriter. A point written
// twice for the same series and timestamp overwrites the earlier one.
func (f *Firestore) WritePoints(ctx context.Context, points []types.Point) error {
	valid, errs := validPoints(points)
	for _, err := range errs {
		log.Ctx(ctx).WarnContext(ctx, "skipping invalid point", slog.Any("error", err))
	}
	if len(valid) == 0 {
		return nil
	}

	// BulkWriter rejects two writes to the same document
	docs := make(map[string]*firestore.DocumentRef, len(valid))
	data := make(map[string]firestorePoint, len(valid))
	var order []string
	for _, p := range valid {
		coll, err := f.getCollection(p.Measurement)
		if err != nil {
			return err
		}
		ref := coll.Doc(pointDocID(p))
		if _, ok := docs[ref.Path]; !ok {
			order = append(order, ref.Path)
		}
		docs[ref.Path] = ref
		data[ref.Path] = firestorePoint{
			Series: p.Series(),
			Tags:   p.Tags,
			Fields: p.Fields,
			Time:   p.Time,
		}
	}

	bw := f.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(order))
	for _, path := range order {
		job, err := bw.Set(docs[path], data[path])
		if err != nil {
			bw.End()
			return fmt.Errorf("failed to queue point %s: %w", path, err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	var writeErrs []error
	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			writeErrs = append(writeErrs, fmt.Errorf("failed to write point %s: %w", order[i], err))
		}
	}
	return errors.Join(writeErrs...)
}

func pointFromDoc(measurement string, doc *firestore.DocumentSnapshot) (types.Point, error) {
	var fp firestorePoint
	if err := doc.DataTo(&fp); err != nil {
		return types.Point{}, fmt.Errorf("failed to decode point %s: %w", doc.Ref.ID, err)
	}
	p := types.NewPoint(measurement, fp.Time)
	for k, v := range fp.Tags {
		p = p.Tag(k, v)
	}
	for k, v := range fp.Fields {
		p = p.Field(k, v)
	}
	return p, nil
}

// PointHistory retrieves points within the specified time range.
// Uses document ID range queries for efficient filtering.
func (f *Firestore) PointHistory(ctx context.Context, measurement string, start, end time.Time) ([]types.Point, error) {
	coll, err := f.getCollection(measurement)
	if err != nil {
		return nil, err
	}
	startDocID := start.UTC().Format(docTimeLayout)
	endDocID := end.UTC().Format(docTimeLayout)

	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(startDocID)).
		Where(firestore.DocumentID, "<", coll.Doc(endDocID)).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var points []types.Point
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating %s points: %w", measurement, err)
		}
		p, err := pointFromDoc(measurement, doc)
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "skipping malformed point doc", slog.String("measurement", measurement), slog.String("docID", doc.Ref.ID), slog.Any("err", err))
			continue
		}
		points = append(points, p)
	}
	return points, nil
}

// LatestPoint returns the most recent point of measurement.
func (f *Firestore) LatestPoint(ctx context.Context, measurement string) (types.Point, error) {
	coll, err := f.getCollection(measurement)
	if err != nil {
		return types.Point{}, err
	}
	iter := coll.
		OrderBy(firestore.DocumentID, firestore.Desc).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return types.Point{}, fmt.Errorf("%w: no %s points", ErrNotFound, measurement)
	}
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.Point{}, fmt.Errorf("%w: no %s points", ErrNotFound, measurement)
		}
		return types.Point{}, fmt.Errorf("failed to get latest %s point: %w", measurement, err)
	}
	return pointFromDoc(measurement, doc)
}
