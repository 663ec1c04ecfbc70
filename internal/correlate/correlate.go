// Package correlate joins the two halves of external transactions.
//
// An external transaction is declared once by each side of an exchange: the
// sender with flow Output, the receiver with flow Input, both carrying the
// same external transaction id. After a run's transactions are committed the
// correlator looks up the complementary halves in the store, including
// halves imported by earlier runs, and links each pair with two
// TransactionConnection edges.
package correlate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tracegraph/internal/assemble"
	"github.com/roach88/tracegraph/internal/ir"
)

// Store is what the correlator needs from the graph store.
type Store interface {
	assemble.Writer
	QueryTransactionsByFlow(ctx context.Context, externalID string, flow ir.Flow, excludeKey string) ([]string, error)
}

// Result summarizes a correlation pass.
type Result struct {
	// Pairs is the number of distinct transaction pairs linked.
	Pairs int
	assemble.Stats
}

// Correlate links every flow-tagged transaction in txs with its stored
// complementary halves. For a transaction T with flow F and a match M it
// writes T->M tagged complement(F) and M->T tagged F. Transactions with the
// same flow are never linked.
//
// Edge keys depend only on the endpoint pair, so running Correlate again
// over an unchanged store inserts nothing.
func Correlate(ctx context.Context, store Store, provider string, txs []ir.Vertex) (Result, error) {
	plan := assemble.NewPlan(provider)
	pairs := make(map[[2]string]struct{})

	for _, tx := range txs {
		if tx.Kind != ir.KindTransaction || tx.Flow == "" || tx.ExternalID == "" {
			continue
		}
		other := tx.Flow.Complement()
		matches, err := store.QueryTransactionsByFlow(ctx, tx.ExternalID, other, tx.Key)
		if err != nil {
			return Result{}, fmt.Errorf("correlate %s: %w", tx.URI, err)
		}

		self := ir.Ref{Kind: ir.KindTransaction, URI: tx.URI, Key: tx.Key, Persisted: true}
		for _, key := range matches {
			match := ir.Ref{Kind: ir.KindTransaction, Key: key, Persisted: true}
			if err := plan.ConnectTagged(ir.RelTransactionConnection, self, match, other); err != nil {
				return Result{}, err
			}
			if err := plan.ConnectTagged(ir.RelTransactionConnection, match, self, tx.Flow); err != nil {
				return Result{}, err
			}
			pairs[pairKey(tx.Key, key)] = struct{}{}
		}
	}

	stats, err := plan.Commit(ctx, store)
	if err != nil {
		return Result{}, fmt.Errorf("correlate: %w", err)
	}

	slog.Debug("transactions correlated", "provider", provider, "pairs", len(pairs), "edges_inserted", stats.EdgesInserted)
	return Result{Pairs: len(pairs), Stats: stats}, nil
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
