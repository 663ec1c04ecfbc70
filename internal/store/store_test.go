package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/roach88/tracegraph/internal/ir"
)

var sqliteDialects = []Dialect{DialectSQLite3, DialectSQLite}

// createTestStore opens a fresh database file for testing.
func createTestStore(t *testing.T, dialect Dialect) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(context.Background(), dialect, path)
	if err != nil {
		t.Fatalf("Open(%s) failed: %v", dialect, err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testVertex(kind ir.Kind, uri ir.URI) ir.Vertex {
	return ir.Vertex{
		Key:         ir.VertexKey(kind, uri),
		Kind:        kind,
		URI:         uri,
		Provider:    "P1",
		Identifiers: map[string]any{"id": string(uri)},
	}
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	for _, d := range sqliteDialects {
		t.Run(string(d), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "graph.db")

			s, err := Open(context.Background(), d, path)
			if err != nil {
				t.Fatalf("Open() failed: %v", err)
			}
			defer s.Close()

			if _, err := os.Stat(path); os.IsNotExist(err) {
				t.Error("database file was not created")
			}
		})
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")

	for i := 0; i < 3; i++ {
		s, err := Open(context.Background(), DialectSQLite3, path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(context.Background(), DialectSQLite3, path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"vertices", "edges", "imports"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t, DialectSQLite3)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("query user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	s, err := Open(context.Background(), DialectSQLite3, path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	if _, err := Open(context.Background(), DialectSQLite3, path); err == nil {
		t.Fatal("Open() accepted a database from a newer version")
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{"", DialectSQLite3},
		{"sqlite3", DialectSQLite3},
		{"SQLite", DialectSQLite},
		{"postgres", DialectPostgres},
		{"mysql", DialectMySQL},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if err != nil {
			t.Errorf("ParseDialect(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := ParseDialect("oracle"); err == nil {
		t.Error("ParseDialect(oracle) should fail")
	}
}

func TestUpsertVertex_ExistenceGated(t *testing.T) {
	for _, d := range sqliteDialects {
		t.Run(string(d), func(t *testing.T) {
			s := createTestStore(t, d)
			ctx := context.Background()

			v := testVertex(ir.KindLocation, "ot:P1:otblid:42")
			v.Payload = map[string]any{"Name": "Plant", "Qty": json.Number("12345678901234567890")}

			inserted, err := s.UpsertVertex(ctx, v)
			if err != nil {
				t.Fatalf("first UpsertVertex() failed: %v", err)
			}
			if !inserted {
				t.Error("first UpsertVertex() reported existing")
			}

			changed := v
			changed.Payload = map[string]any{"Name": "Other"}
			inserted, err = s.UpsertVertex(ctx, changed)
			if err != nil {
				t.Fatalf("second UpsertVertex() failed: %v", err)
			}
			if inserted {
				t.Error("second UpsertVertex() reported inserted")
			}

			got, err := s.ReadVertex(ctx, v.Key)
			if err != nil {
				t.Fatalf("ReadVertex() failed: %v", err)
			}
			payload := got.Payload.(map[string]any)
			if payload["Name"] != "Plant" {
				t.Errorf("stored payload was modified: %v", payload)
			}
			if payload["Qty"] != json.Number("12345678901234567890") {
				t.Errorf("Qty = %v, want exact large integer", payload["Qty"])
			}
			if got.URI != v.URI || got.Kind != v.Kind || got.Provider != "P1" {
				t.Errorf("ReadVertex() = %+v", got)
			}
		})
	}
}

func TestUpsertVertex_TransactionFields(t *testing.T) {
	s := createTestStore(t, DialectSQLite3)
	ctx := context.Background()

	v := testVertex(ir.KindBatch, "ot:P1:otbid:dummy:T1:transfer:ot:P1:otoid:O1")
	v.Dummy = true
	if _, err := s.UpsertVertex(ctx, v); err != nil {
		t.Fatalf("UpsertVertex() failed: %v", err)
	}

	tx := testVertex(ir.KindTransaction, "ot:P1:ottid:T1")
	tx.TransactionType = ir.TransactionExternal
	tx.Flow = ir.FlowOutput
	tx.ExternalID = "T1"
	if _, err := s.UpsertVertex(ctx, tx); err != nil {
		t.Fatalf("UpsertVertex() failed: %v", err)
	}

	got, err := s.ReadVertex(ctx, v.Key)
	if err != nil {
		t.Fatalf("ReadVertex() failed: %v", err)
	}
	if !got.Dummy || got.Payload != nil {
		t.Errorf("dummy batch read back as %+v", got)
	}

	got, err = s.ReadVertex(ctx, tx.Key)
	if err != nil {
		t.Fatalf("ReadVertex() failed: %v", err)
	}
	if got.Flow != ir.FlowOutput || got.ExternalID != "T1" || got.TransactionType != ir.TransactionExternal {
		t.Errorf("transaction read back as %+v", got)
	}
}

func TestUpsertEdge_ExistenceGated(t *testing.T) {
	s := createTestStore(t, DialectSQLite)
	ctx := context.Background()

	e := ir.NewEdge(ir.RelTransactionConnection, "a", "b", "P1")
	e.Flow = ir.FlowInput

	for i, want := range []bool{true, false} {
		inserted, err := s.UpsertEdge(ctx, e)
		if err != nil {
			t.Fatalf("UpsertEdge() #%d failed: %v", i, err)
		}
		if inserted != want {
			t.Errorf("UpsertEdge() #%d inserted = %v, want %v", i, inserted, want)
		}
	}

	edges, err := s.ReadEdgesFrom(ctx, "a")
	if err != nil {
		t.Fatalf("ReadEdgesFrom() failed: %v", err)
	}
	if len(edges) != 1 || edges[0] != e {
		t.Errorf("ReadEdgesFrom() = %+v, want [%+v]", edges, e)
	}

	none, err := s.ReadEdgesFrom(ctx, "b")
	if err != nil {
		t.Fatalf("ReadEdgesFrom() failed: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ReadEdgesFrom() = %#v, want empty slice", none)
	}
}

func TestExistsVertex(t *testing.T) {
	s := createTestStore(t, DialectSQLite3)
	ctx := context.Background()
	v := testVertex(ir.KindObject, "ot:P1:otoid:O1")

	exists, err := s.ExistsVertex(ctx, v.Key)
	if err != nil {
		t.Fatalf("ExistsVertex() failed: %v", err)
	}
	if exists {
		t.Error("ExistsVertex() true before insert")
	}

	if _, err := s.UpsertVertex(ctx, v); err != nil {
		t.Fatalf("UpsertVertex() failed: %v", err)
	}
	exists, err = s.ExistsVertex(ctx, v.Key)
	if err != nil {
		t.Fatalf("ExistsVertex() failed: %v", err)
	}
	if !exists {
		t.Error("ExistsVertex() false after insert")
	}
}

func TestQueryTransactionsByFlow(t *testing.T) {
	s := createTestStore(t, DialectSQLite3)
	ctx := context.Background()

	mk := func(uri ir.URI, flow ir.Flow) ir.Vertex {
		v := testVertex(ir.KindTransaction, uri)
		v.TransactionType = ir.TransactionExternal
		v.Flow = flow
		v.ExternalID = "SHIP-7"
		return v
	}
	out1 := mk("ot:P1:ottid:SHIP-7", ir.FlowOutput)
	in2 := mk("ot:P2:ottid:SHIP-7", ir.FlowInput)
	in3 := mk("ot:P3:ottid:SHIP-7", ir.FlowInput)
	for _, v := range []ir.Vertex{out1, in2, in3} {
		if _, err := s.UpsertVertex(ctx, v); err != nil {
			t.Fatalf("UpsertVertex() failed: %v", err)
		}
	}

	keys, err := s.QueryTransactionsByFlow(ctx, "SHIP-7", ir.FlowInput, out1.Key)
	if err != nil {
		t.Fatalf("QueryTransactionsByFlow() failed: %v", err)
	}
	want := []string{in2.Key, in3.Key}
	if want[0] > want[1] {
		want[0], want[1] = want[1], want[0]
	}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Errorf("keys = %v, want %v", keys, want)
	}

	keys, err = s.QueryTransactionsByFlow(ctx, "SHIP-7", ir.FlowInput, in2.Key)
	if err != nil {
		t.Fatalf("QueryTransactionsByFlow() failed: %v", err)
	}
	if len(keys) != 1 || keys[0] != in3.Key {
		t.Errorf("excludeKey not honored: %v", keys)
	}

	keys, err = s.QueryTransactionsByFlow(ctx, "OTHER", ir.FlowInput, "")
	if err != nil {
		t.Fatalf("QueryTransactionsByFlow() failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("unexpected matches: %v", keys)
	}
}

func TestRecordImport(t *testing.T) {
	s := createTestStore(t, DialectSQLite3)
	ctx := context.Background()

	runs := []ir.ImportRun{
		{ID: "run-1", Provider: "P2", Shape: "v1.5", DocumentDigest: "d1", VerticesInserted: 5, EdgesInserted: 7},
		{ID: "run-2", Provider: "P1", Shape: "v1.5", DocumentDigest: "d2", VerticesInserted: 11, EdgesInserted: 16, Connections: 1},
	}
	for _, r := range runs {
		if err := s.RecordImport(ctx, r); err != nil {
			t.Fatalf("RecordImport() failed: %v", err)
		}
	}
	if err := s.RecordImport(ctx, runs[0]); err == nil {
		t.Error("RecordImport() accepted a duplicate run id")
	}

	got, err := s.ListImports(ctx)
	if err != nil {
		t.Fatalf("ListImports() failed: %v", err)
	}
	if len(got) != 2 || got[0] != runs[0] || got[1] != runs[1] {
		t.Errorf("ListImports() = %+v", got)
	}
}
