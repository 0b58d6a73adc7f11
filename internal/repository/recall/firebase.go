package recall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
	"github.com/oshokin/recall-lens/internal/version"
)

// maxSnapshotBytes caps the size of a registry snapshot read over HTTP.
const maxSnapshotBytes = 32 << 20

// errNotJSON is returned when the database answers with something other than JSON.
var errNotJSON = errors.New("registry response is not JSON")

// FirebaseSource reads records from a Firebase Realtime Database path over REST.
// Children are scanned in the order the server serialized them, which is key order.
type FirebaseSource struct {
	// endpoint is the full .json URL of the record path.
	endpoint string
	// token is the optional database secret or ID token.
	token string
	// client performs the HTTP requests.
	client *http.Client
}

// NewFirebaseSource creates a source for recordPath under the database root URL.
func NewFirebaseSource(rootURL, recordPath, token string, timeout time.Duration) *FirebaseSource {
	endpoint := strings.TrimRight(rootURL, "/") + "/" + strings.Trim(recordPath, "/") + ".json"

	return &FirebaseSource{
		endpoint: endpoint,
		token:    token,
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

// FindFirst implements Source.
func (s *FirebaseSource) FindFirst(ctx context.Context, productName string) (*domain.RecallRecord, error) {
	body, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	return firstInSnapshot(body, productName), nil
}

// fetch downloads the whole record path.
func (s *FirebaseSource) fetch(ctx context.Context) ([]byte, error) {
	endpoint := s.endpoint
	if s.token != "" {
		endpoint += "?auth=" + url.QueryEscape(s.token)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query registry: unexpected status %d: %s", resp.StatusCode, gjson.GetBytes(body, "error").String())
	}

	if !gjson.ValidBytes(body) {
		return nil, errNotJSON
	}

	return body, nil
}

// firstInSnapshot scans the children of a snapshot (object or array) for productName.
func firstInSnapshot(body []byte, productName string) *domain.RecallRecord {
	var found *domain.RecallRecord

	gjson.ParseBytes(body).ForEach(func(_, child gjson.Result) bool {
		name := child.Get("productName")
		if !child.IsObject() || name.Type != gjson.String || name.Str != productName {
			return true
		}

		found = (&record{
			ProductName:        productName,
			RecallReason:       child.Get("recallReason").String(),
			IdentificationInfo: child.Get("identificationInfo").String(),
			URL:                child.Get("url").String(),
		}).toDomain()

		return false
	})

	return found
}
