package ingestion

import (
	"regexp"
	"sort"
	"strings"
)

// Structural cues checked in order. The cascade is heuristic: false positives
// are tolerated, substance filtering below keeps the output usable.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|\n)(Chapter\s+\d+[:\s]+[^\n]+)`),
	regexp.MustCompile(`(?:^|\n)(Section\s+\d+(?:\.\d+)?[:\s]+[^\n]+)`),
	regexp.MustCompile(`(?:^|\n)(\d+\.\s+[A-Z][^\n]+)`),
	regexp.MustCompile(`(?:^|\n)([A-Z][A-Z\s]+)\n`),
}

// minSectionChars is the substantiveness floor: a section whose content after
// the title is not longer than this is dropped.
const minSectionChars = 100

type headingMark struct {
	pos   int
	title string
}

// ExtractSections splits extracted document text into titled sections using
// common heading patterns (chapter markers, numbered headings, all-caps
// lines). Content is sliced between consecutive headings; the last heading
// runs to the end of the text. If no headings are detected the whole text
// becomes a single section titled "Document". Never fails.
func ExtractSections(text string) []Section {
	var headings []headingMark
	for _, re := range headingPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			headings = append(headings, headingMark{
				pos:   m[2],
				title: strings.TrimSpace(text[m[2]:m[3]]),
			})
		}
	}

	sort.Slice(headings, func(i, j int) bool { return headings[i].pos < headings[j].pos })

	var sections []Section
	for i, h := range headings {
		end := len(text)
		if i+1 < len(headings) {
			end = headings[i+1].pos
		}

		content := strings.TrimSpace(text[h.pos:end])
		content = strings.TrimSpace(strings.TrimPrefix(content, h.title))

		if len(content) > minSectionChars {
			sections = append(sections, Section{Title: h.title, Content: content})
		}
	}

	// No structure detected at all: degrade to one section covering
	// everything. Headings whose sections were all filtered for substance do
	// not trigger the fallback.
	if len(headings) == 0 && text != "" {
		sections = append(sections, Section{Title: "Document", Content: text})
	}

	return sections
}
