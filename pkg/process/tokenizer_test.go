package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetTokenizer() {
	codecMu.Lock()
	defaultCodec = nil
	initialized = false
	codecMu.Unlock()
}

func TestInitTokenizer(t *testing.T) {
	resetTokenizer()

	err := InitTokenizer("cl100k_base")
	require.NoError(t, err)
	assert.True(t, IsTokenizerInitialized())
}

func TestInitTokenizer_DefaultEncoding(t *testing.T) {
	resetTokenizer()

	err := InitTokenizer("")
	require.NoError(t, err)
	assert.True(t, IsTokenizerInitialized())
}

func TestCountTokens_Initialized(t *testing.T) {
	resetTokenizer()

	err := InitTokenizer("cl100k_base")
	require.NoError(t, err)

	count := CountTokens("Hello, world!")
	assert.Positive(t, count)
	assert.LessOrEqual(t, count, 10)
}

func TestCountTokens_Uninitialized(t *testing.T) {
	resetTokenizer()

	assert.Equal(t, -1, CountTokens("Hello, world!"))
}
