package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prosePara = "Photosynthesis is the mechanism by which green plants capture light " +
	"and turn it into chemical energy stored in glucose molecules for later use."

func TestGenerateQAPairs_ShortParagraphSkipped(t *testing.T) {
	pairs := GenerateQAPairs("Too short to matter.", "Biology")

	assert.Empty(t, pairs)
}

func TestGenerateQAPairs_ListLikeParagraphSkipped(t *testing.T) {
	// Over five internal line breaks marks the paragraph as list-like.
	para := strings.Repeat("an item in a long enumeration of things\n", 7)

	pairs := GenerateQAPairs(para, "Biology")

	assert.Empty(t, pairs)
}

func TestGenerateQAPairs_ExplainQuestion(t *testing.T) {
	pairs := GenerateQAPairs(prosePara, "Biology")

	require.NotEmpty(t, pairs)
	assert.Equal(t, "Explain Photosynthesis is the mechanism by", pairs[0].Instruction)
	assert.Equal(t, "Biology", pairs[0].Context)
	assert.Equal(t, prosePara, pairs[0].Response)
}

func TestGenerateQAPairs_DefinitionQuestions(t *testing.T) {
	para := "Osmosis is the movement of water across a membrane and happens constantly. " +
		"Diffusion is the spread of particles from dense to sparse regions over time. " +
		"Equilibrium is the state reached when concentrations even out everywhere."

	pairs := GenerateQAPairs(para, "")

	var whatIs []QAPair
	for _, p := range pairs {
		if strings.HasPrefix(p.Instruction, "What is ") {
			whatIs = append(whatIs, p)
		}
	}

	// Capped at two definitions per paragraph even though three patterns match.
	require.Len(t, whatIs, 2)
	assert.Equal(t, "What is Osmosis?", whatIs[0].Instruction)
	assert.Equal(t, "What is Diffusion?", whatIs[1].Instruction)
}

func TestGenerateQAPairs_ProcessQuestion(t *testing.T) {
	para := "The algorithm repeatedly partitions the input around a pivot element. " +
		"Each partition places smaller values left and larger values right of it."

	pairs := GenerateQAPairs(para, "Sorting")

	var howDoes []QAPair
	for _, p := range pairs {
		if strings.HasPrefix(p.Instruction, "How does this work?") {
			howDoes = append(howDoes, p)
		}
	}

	require.Len(t, howDoes, 1)
	assert.Contains(t, howDoes[0].Instruction, "The algorithm repeatedly partitions the input around a pivot element.")
}
