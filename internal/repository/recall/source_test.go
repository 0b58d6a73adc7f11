package recall

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/recall-lens/internal/domain/recall"
)

// snapshotYAML holds two records for the same product to pin first-match order.
const snapshotYAML = `
- productName: Acme Widget
  recallReason: fire risk
  identificationInfo: serial 123
  url: https://x
- productName: Acme Blender
  recallReason: blade detaches
  identificationInfo: model X made in 2019
  url: https://recall.example/acme
- productName: Acme Blender
  recallReason: duplicate entry
`

// TestFileSource_FindFirst covers exact, case-sensitive, first-match lookups.
func TestFileSource_FindFirst(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "recalls.yaml")
	require.NoError(t, os.WriteFile(path, []byte(snapshotYAML), 0o600))

	source := NewFileSource(path)
	ctx := context.Background()

	got, err := source.FindFirst(ctx, "Acme Widget")
	require.NoError(t, err)
	require.Equal(t, &domain.RecallRecord{
		ProductName:     "Acme Widget",
		Reason:          "fire risk",
		IdentifyingInfo: "serial 123",
		RemediationURL:  "https://x",
	}, got)

	got, err = source.FindFirst(ctx, "Acme Blender")
	require.NoError(t, err)
	require.Equal(t, "blade detaches", got.Reason)

	for _, name := range []string{"acme widget", "Acme Widget ", "Acme", ""} {
		got, err = source.FindFirst(ctx, name)
		require.NoError(t, err)
		require.Nil(t, got, name)
	}

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.yaml")).FindFirst(ctx, "Acme Widget")
	require.Error(t, err)
}

// TestFirebaseSource_FindFirst serves a Realtime Database style snapshot.
func TestFirebaseSource_FindFirst(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.URL.Query().Get("auth")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"-NbA": {"productName": "Acme Blender", "recallReason": "blade detaches",
			         "identificationInfo": "model X", "url": "https://recall.example/acme"},
			"-NbB": {"productName": "Acme Blender", "recallReason": "second"},
			"-NbC": "not a record",
			"-NbD": {"productName": 7}
		}`))
	}))
	defer server.Close()

	source := NewFirebaseSource(server.URL+"/", "/2024/recalls/", "secret", time.Second)

	got, err := source.FindFirst(context.Background(), "Acme Blender")
	require.NoError(t, err)
	require.Equal(t, "/2024/recalls.json", gotPath)
	require.Equal(t, "secret", gotAuth)
	require.Equal(t, "blade detaches", got.Reason)
	require.Equal(t, "https://recall.example/acme", got.RemediationURL)

	got, err = source.FindFirst(context.Background(), "acme blender")
	require.NoError(t, err)
	require.Nil(t, got)
}

// serveSnapshot starts a server answering every request with status and body.
func serveSnapshot(t *testing.T, status int, body string) *FirebaseSource {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewFirebaseSource(server.URL, "2024/recalls", "", time.Second)
}

// TestFirebaseSource_Failures distinguishes transport failures from empty paths.
func TestFirebaseSource_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	// Empty path: no records, no error.
	got, err := serveSnapshot(t, http.StatusOK, "null").FindFirst(ctx, "Acme Blender")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = serveSnapshot(t, http.StatusUnauthorized, `{"error": "Permission denied"}`).FindFirst(ctx, "Acme Blender")
	require.ErrorContains(t, err, "Permission denied")

	_, err = serveSnapshot(t, http.StatusOK, "<html>").FindFirst(ctx, "Acme Blender")
	require.ErrorIs(t, err, errNotJSON)
}

// TestFirstInSnapshot_Array handles integer-keyed paths the database returns as arrays.
func TestFirstInSnapshot_Array(t *testing.T) {
	t.Parallel()

	got := firstInSnapshot([]byte(`[null, {"productName": "Acme Widget", "url": "https://x"}]`), "Acme Widget")
	require.NotNil(t, got)
	require.Equal(t, "https://x", got.RemediationURL)
}

// TestSQLiteSource_FindFirst loads a snapshot database and queries it.
func TestSQLiteSource_FindFirst(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recalls.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, Schema)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `INSERT INTO recalls (product_name, recall_reason, identification_info, url)
		VALUES ('Acme Blender', 'blade detaches', 'model X', 'https://recall.example/acme'),
		       ('Acme Blender', 'second', NULL, NULL),
		       ('Acme Kettle', 'leaks', NULL, NULL)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	source, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	defer func() {
		_ = source.Close()
	}()

	got, err := source.FindFirst(ctx, "Acme Blender")
	require.NoError(t, err)
	require.Equal(t, "blade detaches", got.Reason)

	got, err = source.FindFirst(ctx, "Acme Kettle")
	require.NoError(t, err)
	require.Equal(t, &domain.RecallRecord{ProductName: "Acme Kettle", Reason: "leaks"}, got)

	got, err = source.FindFirst(ctx, "ACME BLENDER")
	require.NoError(t, err)
	require.Nil(t, got)
}
