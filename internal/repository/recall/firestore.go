package recall

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// FirestoreSource reads records from a Firestore collection.
// The equality filter runs server-side; without an explicit order Firestore
// returns documents by id, so the first document id wins on duplicates.
type FirestoreSource struct {
	// client is the Firestore client owned by this source.
	client *firestore.Client
	// collection is the collection holding recall documents.
	collection string
}

// NewFirestoreSource creates a Firestore client for projectID using default credentials.
func NewFirestoreSource(ctx context.Context, projectID, collection string) (*FirestoreSource, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	return &FirestoreSource{
		client:     client,
		collection: collection,
	}, nil
}

// FindFirst implements Source.
func (s *FirestoreSource) FindFirst(ctx context.Context, productName string) (*domain.RecallRecord, error) {
	iter := s.client.Collection(s.collection).
		Where("productName", "==", productName).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil, nil //nolint:nilnil // No matching record.
	}

	if err != nil {
		return nil, fmt.Errorf("query firestore: %w", err)
	}

	var doc record
	if err = snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode firestore record %s: %w", snap.Ref.ID, err)
	}

	return doc.toDomain(), nil
}

// Close releases the Firestore client.
func (s *FirestoreSource) Close() error {
	return s.client.Close()
}
