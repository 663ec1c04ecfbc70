package testutil

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tracegraph/internal/ir"
)

// AssertGolden compares the canonical JSON form of v against
// testdata/golden/{name}.golden in the calling package.
//
// To regenerate golden files, run:
//
//	go test ./internal/... -update
//
// v must be made of values ir.MarshalCanonical accepts (maps, slices,
// strings, numbers, bools).
func AssertGolden(t *testing.T, name string, v any) {
	t.Helper()

	data, err := ir.MarshalCanonical(v)
	if err != nil {
		t.Fatalf("golden %s: marshal: %v", name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
