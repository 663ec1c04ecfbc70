package testutil

// FixedRunIDGenerator generates the same import run id every time.
//
// The same document imported with the same FixedRunIDGenerator produces
// byte-identical import log records, which keeps golden reports stable.
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a new fixed run id generator.
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed run id.
//
// Implements importer.RunIDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
