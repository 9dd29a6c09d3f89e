package report

import (
	"fmt"
	"strings"
)

const (
	MinLength = 1
	MaxLength = 5
)

var lengthGuidance = map[int]string{
	1: "Keep it very brief, approximately 500 words.",
	2: "Keep it concise, approximately 800 words.",
	3: "Use a moderate length, approximately 1200 words.",
	4: "Provide detailed coverage, approximately 2000 words.",
	5: "Create an extensive report, approximately 3000+ words.",
}

const academicGuidance = "Use scholarly language, include proper citations, methodology sections, and research context."

const formatInstructions = `Format the report with proper Markdown formatting:
- Use # for main headings
- Use ## for subheadings
- Use bullet points and numbered lists where appropriate
- Include an executive summary at the beginning

Structure the report with these sections:
1. Executive Summary
2. Introduction
3. Main Content (with relevant subheadings)
4. Conclusion
5. References (if applicable)`

// LengthGuidance returns the word-count clause for a report length ordinal.
func LengthGuidance(length int) (string, bool) {
	g, ok := lengthGuidance[length]
	return g, ok
}

// BuildPrompt turns a validated configuration into the text generation prompt.
func BuildPrompt(cfg Configuration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Generate a comprehensive technical report on the topic: \"%s\". ", cfg.Topic))
	b.WriteString(academicGuidance)
	if g, ok := LengthGuidance(cfg.ReportLength); ok {
		b.WriteString(" ")
		b.WriteString(g)
	}
	b.WriteString("\n\n")
	b.WriteString(formatInstructions)

	if cfg.IncludeImages {
		b.WriteString(fmt.Sprintf("\n\nInclude %d placeholders for images by adding: [Image: brief description of relevant image] where appropriate throughout the document. Make these descriptions specific enough for image generation.", cfg.ImageCount))
	}
	if cfg.IncludeGraphs {
		b.WriteString("\n\nInclude placeholders for graphs or charts by adding: [Graph: description of the data visualization] where appropriate.")
	}
	return b.String()
}
