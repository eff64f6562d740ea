package cliopts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeys(t *testing.T) {
	keys, err := ParseKeys([]string{"PatientName=DOE^JOHN", "Seq[0].Elem=1"})
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, KeyValue{Path: "PatientName", Value: "DOE^JOHN"}, keys[0])
	assert.Equal(t, KeyValue{Path: "Seq[0].Elem", Value: "1"}, keys[1])
}

func TestParseKeysMalformed(t *testing.T) {
	_, err := ParseKeys([]string{"NoEqualsSign"})
	assert.Error(t, err)
}

func TestParseKeysEmpty(t *testing.T) {
	keys, err := ParseKeys(nil)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
