package report

import (
	"fmt"
	"regexp"
	"strings"
)

var headingMarkerRe = regexp.MustCompile(`^#+ `)

const imageStyle = "Scientific diagram with labels"

// Candidates picks exactly count image subjects from the generated text:
// level 1/2 headings first, then [Image: ...] markers, then "<topic>
// visualization" padding.
func Candidates(content string, count int, topic string) []string {
	if count <= 0 {
		return nil
	}

	var out []string
	seen := map[string]bool{}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") || strings.HasPrefix(line, "## ") {
			c := strings.TrimSpace(headingMarkerRe.ReplaceAllString(line, ""))
			out = append(out, c)
			seen[c] = true
		}
	}

	if len(out) < count {
		for _, m := range imageMarkerRe.FindAllStringSubmatch(content, -1) {
			if len(out) >= count {
				break
			}
			c := strings.TrimSpace(m[1])
			if seen[c] {
				continue
			}
			out = append(out, c)
			seen[c] = true
		}
	}

	for len(out) < count {
		out = append(out, topic+" visualization")
	}
	return out[:count]
}

// PlanImagePrompts expands the candidates into full image generation prompts.
// Long prompts are left intact; the acquirer decides about truncation.
func PlanImagePrompts(content string, count int, topic string) []string {
	candidates := Candidates(content, count, topic)
	if len(candidates) == 0 {
		return nil
	}
	prompts := make([]string, len(candidates))
	for i, c := range candidates {
		prompts[i] = ImagePrompt(c, topic)
	}
	return prompts
}

func ImagePrompt(subject, topic string) string {
	return fmt.Sprintf("Generate a high-quality image of \"%s\" for a report about %s. %s. Make it suitable for a technical document.", subject, topic, imageStyle)
}
