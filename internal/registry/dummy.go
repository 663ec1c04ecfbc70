package registry

import (
	"fmt"

	"github.com/roach88/tracegraph/internal/ir"
)

// Role is the part a batch plays in the transaction that references it.
type Role string

const (
	RoleInput    Role = "input"
	RoleOutput   Role = "output"
	RoleTransfer Role = "transfer"
)

// DummyPrefix starts the local id of every placeholder batch.
const DummyPrefix = "dummy"

// DummyBatchID derives the local id of the placeholder batch a transaction
// implies for a product. It depends only on the transaction id, the role and
// the product URI, so reimporting a document yields the same placeholder.
func DummyBatchID(txLocalID string, role Role, product ir.URI) string {
	return fmt.Sprintf("%s:%s:%s:%s", DummyPrefix, ir.NormalizeID(txLocalID), role, product)
}

// RegisterDummyBatch registers the placeholder batch for a transaction that
// references a product without naming a batch. The caller emits the
// InstanceOf edge to product.
func (r *Registry) RegisterDummyBatch(txLocalID string, role Role, product ir.Ref, path string) (*Record, error) {
	if product.Kind != ir.KindObject {
		return nil, fmt.Errorf("register dummy batch: product ref has kind %q", product.Kind)
	}
	local := DummyBatchID(txLocalID, role, product.URI)
	uri := r.canon.Canonicalize(ir.KindBatch, ir.RawID(local))
	return r.store(ir.KindBatch, local, uri, Attrs{
		Path: path,
		Identifiers: map[string]any{
			"TransactionId": ir.NormalizeID(txLocalID),
			"ObjectUid":     string(product.URI),
			"role":          string(role),
		},
		Parent: product.URI,
	}, true)
}
