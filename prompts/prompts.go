package prompts

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

// RenderStudyBuddySystemPrompt renders the study-buddy persona prompt,
// appending the retrieved study-material context when non-empty.
func RenderStudyBuddySystemPrompt(retrievedContext string) (string, error) {
	content, err := templatesFS.ReadFile("templates/study_buddy_system.md")
	if err != nil {
		return "", err
	}

	tmpl, err := template.New("study_buddy_system").Parse(string(content))
	if err != nil {
		return "", err
	}

	data := struct {
		Context string
	}{
		Context: retrievedContext,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}
