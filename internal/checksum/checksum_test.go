package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumIsStable(t *testing.T) {
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Sum(nil))
	assert.Equal(t, Sum([]byte("a")), Sum([]byte("a")))
	assert.NotEqual(t, Sum([]byte("a")), Sum([]byte("b")))
}

func TestJSONDigestMatchesEncoding(t *testing.T) {
	data, sum, err := JSON(map[string]int{"x": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(data))
	assert.Equal(t, Sum(data), sum)

	_, _, err = JSON(func() {})
	assert.Error(t, err)
}
