package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/levenlabs/go-lflag"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/breakerview/breakerview/pkg/log"
	"github.com/breakerview/breakerview/pkg/types"
)

const seriesCollection = "series"

// FirestoreProvider implements the Database interface using Google Cloud
// Firestore. Series are stored under groups/{groupID}/series.
type FirestoreProvider struct {
	client    *firestore.Client
	projectID string
	database  string
}

var _ Database = (*FirestoreProvider)(nil)

// configuredFirestore sets up the Firestore provider.
// It registers flags for configuration.
func configuredFirestore() *FirestoreProvider {
	projectID := lflag.String("firestore-project-id", "", "Google Cloud Project ID for Firestore")
	database := lflag.String("firestore-database", "", "Google Cloud Firestore Database")
	emulator := lflag.String("firestore-emulator", "", "Use Firestore emulator")

	f := &FirestoreProvider{}

	lflag.Do(func() {
		f.projectID = *projectID
		f.database = *database

		// set this because that's how firestore client expects it
		if *emulator != "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", *emulator)
		}
	})

	return f
}

// Validate checks if the provider is properly configured.
func (f *FirestoreProvider) Validate() error {
	if f.projectID == "" && os.Getenv("FIRESTORE_EMULATOR_HOST") != "" {
		return errors.New("firestore-project-id is required with the emulator")
	}
	return nil
}

// Init initializes the Firestore client.
// This must be called before using the provider methods.
func (f *FirestoreProvider) Init(ctx context.Context) error {
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
func (f *FirestoreProvider) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func (f *FirestoreProvider) getCollection(groupID string) (*firestore.CollectionRef, error) {
	if groupID == "" {
		return nil, errors.New("groupID cannot be empty")
	}
	return f.client.Collection("groups").Doc(groupID).Collection(seriesCollection), nil
}

// seriesDocID sorts by start within a view since RFC3339 in UTC sorts
// lexically.
func seriesDocID(view types.View, start time.Time) string {
	return string(view) + "_" + start.UTC().Format(time.RFC3339)
}

// UpsertSeries stores the series as a JSON string alongside its start and
// version.
func (f *FirestoreProvider) UpsertSeries(ctx context.Context, series types.EnergySeries) error {
	if series.Start.IsZero() {
		return errors.New("series missing start")
	}
	if series.View == "" {
		return errors.New("series missing view")
	}
	coll, err := f.getCollection(series.GroupID)
	if err != nil {
		return err
	}
	jsonBytes, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}

	_, err = coll.Doc(seriesDocID(series.View, series.Start)).Set(ctx, map[string]interface{}{
		"json":    string(jsonBytes),
		"view":    string(series.View),
		"start":   series.Start,
		"version": series.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert series: %w", err)
	}
	return nil
}

// GetSeries retrieves the series whose period starts at start.
func (f *FirestoreProvider) GetSeries(ctx context.Context, groupID string, view types.View, start time.Time) (types.EnergySeries, error) {
	coll, err := f.getCollection(groupID)
	if err != nil {
		return types.EnergySeries{}, err
	}
	doc, err := coll.Doc(seriesDocID(view, start)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return types.EnergySeries{}, ErrSeriesNotFound
		}
		return types.EnergySeries{}, fmt.Errorf("failed to fetch series doc: %w", err)
	}
	return decodeSeriesDoc(ctx, groupID, doc)
}

// ListSeries retrieves the series of a view whose start is in [start, end).
func (f *FirestoreProvider) ListSeries(ctx context.Context, groupID string, view types.View, start, end time.Time) ([]types.EnergySeries, error) {
	coll, err := f.getCollection(groupID)
	if err != nil {
		return nil, err
	}
	iter := coll.
		Where(firestore.DocumentID, ">=", coll.Doc(seriesDocID(view, start))).
		Where(firestore.DocumentID, "<", coll.Doc(seriesDocID(view, end))).
		OrderBy(firestore.DocumentID, firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	var all []types.EnergySeries
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error iterating series: %w", err)
		}
		s, err := decodeSeriesDoc(ctx, groupID, doc)
		if err != nil {
			return nil, err
		}
		all = append(all, s)
	}
	return all, nil
}

func decodeSeriesDoc(ctx context.Context, groupID string, doc *firestore.DocumentSnapshot) (types.EnergySeries, error) {
	val, err := doc.DataAt("json")
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "series doc missing json", slog.String("docID", doc.Ref.ID), slog.String("groupID", groupID))
		return types.EnergySeries{}, fmt.Errorf("series doc %s missing 'json' field: %w", doc.Ref.ID, err)
	}
	jsonStr, ok := val.(string)
	if !ok {
		log.Ctx(ctx).WarnContext(ctx, "series doc json not string", slog.String("docID", doc.Ref.ID), slog.String("groupID", groupID))
		return types.EnergySeries{}, fmt.Errorf("series doc %s 'json' field is not string", doc.Ref.ID)
	}

	var s types.EnergySeries
	if err := json.Unmarshal([]byte(jsonStr), &s); err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to unmarshal series", slog.String("docID", doc.Ref.ID), slog.Any("err", err))
		return types.EnergySeries{}, fmt.Errorf("failed to unmarshal series (id=%s): %w", doc.Ref.ID, err)
	}

	// older documents may predate the version field in the json
	if s.Version == 0 {
		if v, err := doc.DataAt("version"); err == nil {
			if vInt, ok := v.(int64); ok {
				s.Version = int(vInt)
			}
		}
	}
	return s, nil
}
