package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	a, b := g.Generate(), g.Generate()
	assert.NotEqual(t, a, b)

	u, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), u.Version())
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("r1", "r2")
	assert.Equal(t, "r1", g.Generate())
	assert.Equal(t, "r2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
