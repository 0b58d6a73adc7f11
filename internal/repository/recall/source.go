package recall

import (
	"context"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// Source finds recall records by product name.
type Source interface {
	// FindFirst returns the first exact match or nil when nothing matches.
	FindFirst(ctx context.Context, productName string) (*domain.RecallRecord, error)
}

// record is the registry document layout shared by every backing store.
type record struct {
	ProductName        string `yaml:"productName"        firestore:"productName"`
	RecallReason       string `yaml:"recallReason"       firestore:"recallReason"`
	IdentificationInfo string `yaml:"identificationInfo" firestore:"identificationInfo"`
	URL                string `yaml:"url"                firestore:"url"`
}

// toDomain converts the stored layout into the domain record.
func (r *record) toDomain() *domain.RecallRecord {
	return &domain.RecallRecord{
		ProductName:     r.ProductName,
		Reason:          r.RecallReason,
		IdentifyingInfo: r.IdentificationInfo,
		RemediationURL:  r.URL,
	}
}
