package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DebugGate(t *testing.T) {
	var quiet Buffer
	l := New(&quiet, false)
	l.Debugf("hidden %d", 1)
	l.Warningf("shown %d", 2)
	assert.NotContains(t, quiet.String(), "hidden 1")
	assert.Contains(t, quiet.String(), "shown 2")

	var loud Buffer
	l = New(&loud, true)
	l.Debugf("visible %d", 3)
	assert.Contains(t, loud.String(), "visible 3")
}
