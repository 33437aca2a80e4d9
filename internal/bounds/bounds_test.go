package bounds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilAndZeroLimitDisable(t *testing.T) {
	var m *Monitor
	assert.NoError(t, m.Check())
	assert.NoError(t, (&Monitor{}).Check())
}

func TestGenerousLimitPasses(t *testing.T) {
	m := &Monitor{MaxHeapBytes: 1 << 40}
	assert.NoError(t, m.Check())
}

func TestTinyLimitFails(t *testing.T) {
	m := &Monitor{MaxHeapBytes: 1}
	assert.ErrorIs(t, m.Check(), ErrExceeded)
}
