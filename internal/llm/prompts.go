// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"text/template"
)

// extractionPromptTmpl is the prompt sent for each student message. Known
// context is included so the model reports only what the new message states.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are reading one message from a research advising conversation with a graduate student.

Context already known from earlier turns:
- field of study: {{if .Field}}{{.Field}}{{else}}unknown{{end}}
- interests: {{if .Interests}}{{.Interests}}{{else}}none stated yet{{end}}

Extract from the message below:
- field: the academic field of study the message states, or null when the message does not state one. A correction like "actually, make it economics" states a field.
- interests: research interests the message states, as short phrases in the student's own words. Use an empty array when the message states none.

Report only what this message states; do not repeat known context the message does not restate. Respond with a JSON object and no text outside it.

Example response:
{"field": "computer science", "interests": ["federated learning", "differential privacy"]}

Student message:
{{.Message}}
`))

// generationPromptTmpl is the prompt for one topic generation round.
var generationPromptTmpl = template.Must(template.New("generation").Parse(`You are proposing thesis topic candidates for a graduate student.

- field of study: {{.Field}}
- interests: {{.Interests}}

Propose exactly {{.Count}} distinct candidate topics. Each topic is one concise phrase of at most fifteen words naming a concrete research direction that combines the field with one or more of the interests. Topics must be specific enough to search academic literature for. Do not number the topics and do not explain them.

Respond with a JSON object and no text outside it.

Example response:
{"topics": ["Differentially private aggregation for cross-device federated learning"]}
`))

// renderExtractionPrompt executes the extraction template. Interests arrive
// pre-joined for display.
func renderExtractionPrompt(field, interests, message string) (string, error) {
	var buf bytes.Buffer
	data := struct{ Field, Interests, Message string }{field, interests, message}
	if err := extractionPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// renderGenerationPrompt executes the generation template.
func renderGenerationPrompt(field, interests string, count int) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Field     string
		Interests string
		Count     int
	}{field, interests, count}
	if err := generationPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
