package store

import (
	"fmt"
	"strings"
)

var (
	vertexColumns = []string{
		"id", "vertex_type", "uid", "data_provider", "identifiers", "data",
		"transaction_type", "transaction_flow", "external_id", "dummy",
	}
	edgeColumns = []string{
		"id", "edge_type", "from_id", "to_id", "data_provider", "transaction_flow",
	}
	importColumns = []string{
		"id", "provider", "shape", "document_digest",
		"vertices_inserted", "vertices_skipped", "edges_inserted", "edges_skipped", "connections",
	}
)

// queries holds the statements of one dialect, built once per Store.
type queries struct {
	insertVertex string
	insertEdge   string
	insertImport string
	existsVertex string
	txByFlow     string
	selectVertex string
	selectEdges  string
	listImports  string
}

func buildQueries(d Dialect) queries {
	return queries{
		insertVertex: rebind(d, insertIgnore(d, "vertices", vertexColumns)),
		insertEdge:   rebind(d, insertIgnore(d, "edges", edgeColumns)),
		insertImport: rebind(d, fmt.Sprintf("INSERT INTO imports (%s) VALUES (%s)",
			strings.Join(importColumns, ", "), placeholders(len(importColumns)))),
		existsVertex: rebind(d, "SELECT 1 FROM vertices WHERE id = ?"),
		txByFlow:     rebind(d, "SELECT id FROM vertices WHERE vertex_type = ? AND external_id = ? AND transaction_flow = ? AND id <> ? ORDER BY id ASC"),
		selectVertex: rebind(d, fmt.Sprintf("SELECT %s FROM vertices WHERE id = ?",
			strings.Join(vertexColumns, ", "))),
		selectEdges:  rebind(d, fmt.Sprintf("SELECT %s FROM edges WHERE from_id = ? ORDER BY edge_type ASC, id ASC",
			strings.Join(edgeColumns, ", "))),
		listImports: fmt.Sprintf("SELECT %s FROM imports ORDER BY seq ASC",
			strings.Join(importColumns, ", ")),
	}
}

// insertIgnore builds an insert that does nothing when the id exists.
func insertIgnore(d Dialect, table string, cols []string) string {
	list := strings.Join(cols, ", ")
	if d == DialectMySQL {
		return fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)", table, list, placeholders(len(cols)))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING", table, list, placeholders(len(cols)))
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
