package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

var errTestTransport = errors.New("connection reset")

// sliceSource is an ordered in-memory recall.Source.
type sliceSource struct {
	// records are scanned in order.
	records []*domain.RecallRecord
	// err is returned instead of scanning when set.
	err error
	// calls counts FindFirst invocations.
	calls int
}

// FindFirst returns the first record with an equal product name.
func (s *sliceSource) FindFirst(_ context.Context, productName string) (*domain.RecallRecord, error) {
	s.calls++

	if s.err != nil {
		return nil, s.err
	}

	for _, r := range s.records {
		if r.ProductName == productName {
			return r, nil
		}
	}

	return nil, nil
}

// TestLookup_ExactMatch checks that only exact names match and nothing is cached.
func TestLookup_ExactMatch(t *testing.T) {
	t.Parallel()

	source := &sliceSource{
		records: []*domain.RecallRecord{
			{ProductName: "Acme Widget", Reason: "fire risk"},
			{ProductName: "Acme Widget", Reason: "duplicate"},
		},
	}
	reg := New(source)
	ctx := context.Background()

	for _, name := range []string{"acme widget", "Acme  Widget", "Acme Widget\n", "Acme"} {
		got, err := reg.Lookup(ctx, &domain.ObjectIdentity{Name: name})
		require.NoError(t, err)
		require.Nil(t, got, name)
	}

	got, err := reg.Lookup(ctx, &domain.ObjectIdentity{Name: "Acme Widget"})
	require.NoError(t, err)
	require.Equal(t, "fire risk", got.Reason)

	_, err = reg.Lookup(ctx, &domain.ObjectIdentity{Name: "Acme Widget"})
	require.NoError(t, err)
	require.Equal(t, 6, source.calls)

	_, err = reg.Lookup(ctx, nil)
	require.ErrorIs(t, err, errIdentityRequired)
}

// TestLookup_Unavailable separates failures from "not recalled".
func TestLookup_Unavailable(t *testing.T) {
	t.Parallel()

	reg := New(&sliceSource{err: errTestTransport})

	got, err := reg.Lookup(context.Background(), &domain.ObjectIdentity{Name: "Acme Widget"})
	require.Nil(t, got)
	require.ErrorIs(t, err, domain.ErrRegistryUnavailable)
	require.ErrorIs(t, err, errTestTransport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = reg.Lookup(ctx, &domain.ObjectIdentity{Name: "Acme Widget"})
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, domain.ErrRegistryUnavailable)
}
