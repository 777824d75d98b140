package testutil

// FixedIDGenerator generates the same identifier every time.
//
// Request and export identifiers are otherwise UUIDv7 values, so output that
// embeds them cannot be compared against a golden file. With a fixed id the
// same scenario produces byte-identical documents.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed identifier generator.
//
// If id is empty, Generate() returns "test-id-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-id-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed identifier.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
