package quizgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paragraphOfWords(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestSplitChunks_EmptyInput(t *testing.T) {
	assert.Nil(t, SplitChunks("", 100))
	assert.Nil(t, SplitChunks("  \n\n   \n\n ", 100))
}

func TestSplitChunks_SingleSmallParagraph(t *testing.T) {
	text := "A single short paragraph about networks."
	chunks := SplitChunks(text, 1000)

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, text, chunks[0].Text)
	assert.Equal(t, EstimateTokens(text), chunks[0].Tokens)
}

func TestSplitChunks_AccumulatesUntilTarget(t *testing.T) {
	// Three 10-word paragraphs, 13 tokens each. Two joined are 26 tokens,
	// three joined are 39, so a 30-token target holds exactly two.
	p := paragraphOfWords("alpha", 10)
	text := p + "\n\n" + p + "\n\n" + p

	chunks := SplitChunks(text, 30)

	require.Len(t, chunks, 2)
	assert.Equal(t, p+"\n\n"+p, chunks[0].Text)
	assert.Equal(t, p, chunks[1].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 1, chunks[1].Index)
}

func TestSplitChunks_PreservesOrderAndContent(t *testing.T) {
	paragraphs := []string{
		paragraphOfWords("one", 20),
		paragraphOfWords("two", 20),
		paragraphOfWords("three", 20),
		paragraphOfWords("four", 20),
	}
	text := strings.Join(paragraphs, "\n\n")

	chunks := SplitChunks(text, 30)

	var rejoined []string
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		rejoined = append(rejoined, chunk.Text)
	}
	assert.Equal(t, text, strings.Join(rejoined, "\n\n"),
		"concatenated chunks must reproduce the original paragraph sequence")
}

func TestSplitChunks_SizeBound(t *testing.T) {
	var paragraphs []string
	for i := 0; i < 12; i++ {
		paragraphs = append(paragraphs, paragraphOfWords("word", 15))
	}
	target := 60
	chunks := SplitChunks(strings.Join(paragraphs, "\n\n"), target)

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.Tokens, target,
			"multi-paragraph chunks must respect the target size")
	}
}

func TestSplitChunks_OversizedParagraphKeptWhole(t *testing.T) {
	huge := paragraphOfWords("dense", 200)
	small := paragraphOfWords("tiny", 5)
	text := small + "\n\n" + huge + "\n\n" + small

	chunks := SplitChunks(text, 50)

	require.Len(t, chunks, 3)
	assert.Equal(t, huge, chunks[1].Text)
	assert.Greater(t, chunks[1].Tokens, 50, "an indivisible paragraph may exceed the target")
}
