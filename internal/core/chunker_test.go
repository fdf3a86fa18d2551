package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sixtyCharSentence is exactly 60 characters including the trailing period.
const sixtyCharSentence = "This sentence is exactly sixty characters long for the test."

func TestSplitChunksEmptyDocument(t *testing.T) {
	_, err := SplitChunks("", 1000)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = SplitChunks("   \n\t  ", 1000)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestSplitChunksShortDocumentSingleChunk(t *testing.T) {
	chunks, err := SplitChunks("A short document. Nothing to split here.", 1000)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "A short document. Nothing to split here.", chunks[0])
}

func TestSplitChunksCoverage(t *testing.T) {
	text := strings.Repeat("The mitochondria is the powerhouse of the cell. ", 60) +
		"Photosynthesis converts light into chemical energy!\nA final line without trailing punctuation"

	chunks, err := SplitChunks(text, 500)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	// Concatenating all chunks must reconstruct the input modulo whitespace.
	normalize := func(s string) string { return strings.Join(strings.Fields(s), " ") }
	assert.Equal(t, normalize(text), normalize(strings.Join(chunks, " ")))

	for i, chunk := range chunks {
		assert.NotEmpty(t, chunk, "chunk %d is blank", i)
		assert.Equal(t, chunk, strings.TrimSpace(chunk), "chunk %d is not trimmed", i)
		assert.LessOrEqual(t, len([]rune(chunk)), 500, "chunk %d exceeds the window", i)
	}
}

func TestSplitChunksRespectsSentenceBoundaries(t *testing.T) {
	text := strings.Repeat(sixtyCharSentence, 20) // 1200 chars, boundaries every 60

	chunks, err := SplitChunks(text, 1000)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	// The first cut backs off to the last period inside the window.
	assert.True(t, strings.HasSuffix(chunks[0], "."), "first chunk should end at a sentence boundary")
	assert.True(t, strings.HasPrefix(chunks[1], "This sentence"), "second chunk should start a new sentence")
}

func TestSplitChunksNoBoundaryCutsAtWindowEdge(t *testing.T) {
	text := strings.Repeat("a", 900) // no sentence boundary anywhere

	chunks, err := SplitChunks(text, 400)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, 400, len(chunks[0]))
	assert.Equal(t, 400, len(chunks[1]))
	assert.Equal(t, 100, len(chunks[2]))
}

func TestSplitChunksFloorsChunkSize(t *testing.T) {
	text := strings.Repeat("b", 500)

	// A size below the floor is raised to MinChunkChars.
	chunks, err := SplitChunks(text, 10)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, MinChunkChars, len(chunks[0]))
}

func TestSplitChunksDeterministic(t *testing.T) {
	text := strings.Repeat(sixtyCharSentence+" ", 30)

	first, err := SplitChunks(text, 700)
	require.NoError(t, err)
	second, err := SplitChunks(text, 700)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSplitChunks2400CharsInto3Chunks(t *testing.T) {
	text := strings.Repeat(sixtyCharSentence, 40)
	require.Equal(t, 2400, len(text))

	chunks, err := SplitChunks(text, 1000)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}
