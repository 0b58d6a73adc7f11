// Package registry looks object identities up in the recall registry.
package registry

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/logger"
	"github.com/oshokin/recall-lens/internal/repository/recall"
)

// errIdentityRequired is returned for a nil or nameless identity.
var errIdentityRequired = errors.New("object identity must be provided")

// Registry answers "is this product recalled?" against a record source.
//
// A match is an exact, case-sensitive comparison with productName and the first
// match in source order wins. When the registry holds duplicates and is written
// concurrently, which duplicate is "first" is not stable.
type Registry struct {
	// source is the backing store, queried on every lookup.
	source recall.Source
}

// New creates a registry over source.
func New(source recall.Source) *Registry {
	return &Registry{
		source: source,
	}
}

// Lookup returns the matching record, or nil when the product is not recalled.
// Source failures are reported as domain.ErrRegistryUnavailable and must not be
// read as "not recalled".
func (r *Registry) Lookup(ctx context.Context, identity *domain.ObjectIdentity) (*domain.RecallRecord, error) {
	if identity == nil || identity.Name == "" {
		return nil, errIdentityRequired
	}

	record, err := r.source.FindFirst(ctx, identity.Name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrRegistryUnavailable, err)
	}

	if record == nil {
		logger.DebugKV(ctx, "No recall found", "object_name", identity.Name)
		return nil, nil //nolint:nilnil // No matching record.
	}

	logger.InfoKV(ctx, "Recall found", "object_name", identity.Name, "remediation_url", record.RemediationURL)

	return record, nil
}
