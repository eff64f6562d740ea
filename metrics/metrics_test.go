package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.AssociationsEstablished.Inc()
	m.ActiveAssociations.Inc()
	m.DIMSEOperations.WithLabelValues("0x0030", "success").Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "success", StatusClass(0x0000))
	assert.Equal(t, "pending", StatusClass(0xFF00))
	assert.Equal(t, "pending", StatusClass(0xFF01))
	assert.Equal(t, "cancel", StatusClass(0xFE00))
	assert.Equal(t, "warning", StatusClass(0xB000))
	assert.Equal(t, "failure", StatusClass(0xC000))
}
