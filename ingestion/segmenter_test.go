package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSections_NoHeadings(t *testing.T) {
	text := "plain prose without any structure at all. it simply keeps going, " +
		"sentence after sentence, with nothing resembling a heading anywhere."

	sections := ExtractSections(text)

	require.Len(t, sections, 1)
	assert.Equal(t, "Document", sections[0].Title)
	assert.Equal(t, text, sections[0].Content)
}

func TestExtractSections_EmptyText(t *testing.T) {
	assert.Empty(t, ExtractSections(""))
}

func TestExtractSections_SubstantivenessFloor(t *testing.T) {
	// Headings are detected but both sections are under the 100-character
	// floor, so nothing survives and the fallback must not fire.
	text := "INTRO\nCats are mammals. They are carnivorous.\n\nDOGS\nDogs are mammals too.\n"

	sections := ExtractSections(text)

	assert.Empty(t, sections)
}

func TestExtractSections_ChapterHeadings(t *testing.T) {
	body1 := strings.Repeat("Plants convert light into chemical energy using chlorophyll. ", 4)
	body2 := strings.Repeat("Cells divide through mitosis in several well defined phases. ", 4)
	text := "Chapter 1: Photosynthesis\n" + body1 + "\nChapter 2: Cell Division\n" + body2

	sections := ExtractSections(text)

	require.Len(t, sections, 2)
	assert.Equal(t, "Chapter 1: Photosynthesis", sections[0].Title)
	assert.Contains(t, sections[0].Content, "chlorophyll")
	assert.NotContains(t, sections[0].Content, "mitosis")
	assert.Equal(t, "Chapter 2: Cell Division", sections[1].Title)
	assert.Contains(t, sections[1].Content, "mitosis")
}

func TestExtractSections_OrderedByPosition(t *testing.T) {
	body := strings.Repeat("Some substantive explanation sentence that pads the section length. ", 3)
	text := "1. First Topic\n" + body + "\n2. Second Topic\n" + body + "\n3. Third Topic\n" + body

	sections := ExtractSections(text)

	require.Len(t, sections, 3)
	assert.Equal(t, "1. First Topic", sections[0].Title)
	assert.Equal(t, "2. Second Topic", sections[1].Title)
	assert.Equal(t, "3. Third Topic", sections[2].Title)
}
