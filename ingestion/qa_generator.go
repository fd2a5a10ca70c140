package ingestion

import (
	"fmt"
	"regexp"
	"strings"
)

// Capitalized term followed by a definitional verb, e.g. "Photosynthesis is".
var definitionPattern = regexp.MustCompile(`([A-Z][a-z]+(?:\s+[a-z]+)*)\s+(?:is|are|refers to|means)`)

// Paragraphs mentioning any of these are assumed to describe a procedure.
var processKeywords = []string{"process", "method", "algorithm", "technique", "step"}

const (
	minParagraphChars = 100
	maxParagraphLines = 5
	maxDefinitions    = 2
)

// GenerateQAPairs derives instruction/response pairs from section text using
// pattern heuristics. Paragraphs under the length floor or that look like
// lists are skipped. This is best-effort training data generation, not
// precision NLP: false positives and negatives are expected.
func GenerateQAPairs(text, sectionTitle string) []QAPair {
	var pairs []QAPair

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if len(para) < minParagraphChars || strings.Count(para, "\n") > maxParagraphLines {
			continue
		}

		firstSentence, _, _ := strings.Cut(para, ".")
		firstSentence += "."

		// Explanation question from the opening concept.
		if len(firstSentence) > 20 {
			words := strings.Fields(firstSentence)
			if len(words) > 3 {
				concept := strings.TrimRight(strings.Join(words[:min(5, len(words))], " "), ".,")
				pairs = append(pairs, QAPair{
					Instruction: fmt.Sprintf("Explain %s", concept),
					Context:     sectionTitle,
					Response:    para,
				})
			}
		}

		// Definitional "What is" questions.
		for _, m := range definitionPattern.FindAllStringSubmatch(para, maxDefinitions) {
			pairs = append(pairs, QAPair{
				Instruction: fmt.Sprintf("What is %s?", m[1]),
				Context:     sectionTitle,
				Response:    para,
			})
		}

		// Procedural question when the paragraph describes a process.
		lower := strings.ToLower(para)
		for _, kw := range processKeywords {
			if strings.Contains(lower, kw) {
				pairs = append(pairs, QAPair{
					Instruction: fmt.Sprintf("How does this work? %s", firstSentence),
					Context:     sectionTitle,
					Response:    para,
				})
				break
			}
		}
	}

	return pairs
}
