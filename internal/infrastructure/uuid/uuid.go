package uuid

import guuid "github.com/google/uuid"

// V4Generator Generator implementation producing random RFC 4122 UUIDs.
// Used for the opaque viewer token, which must be globally unique but
// carries no server-side meaning
type V4Generator struct{}

var _ Generator = V4Generator{}

// NewV4Generator create a new `V4Generator` instance
func NewV4Generator() V4Generator {
	return V4Generator{}
}

// Generate generate UUID
func (V4Generator) Generate() (string, error) {
	id, err := guuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
