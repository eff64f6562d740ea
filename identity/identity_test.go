package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsUnique(t *testing.T) {
	a, b := New(), New()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestWithCorrelationIDRoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-1")
	assert.Equal(t, "corr-1", CorrelationID(ctx))
}

func TestCorrelationIDUnset(t *testing.T) {
	assert.Equal(t, "", CorrelationID(context.Background()))
}
