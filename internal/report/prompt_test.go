package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPrompt_LengthGuidance(t *testing.T) {
	for length := MinLength; length <= MaxLength; length++ {
		cfg := DefaultConfiguration()
		cfg.Topic = "Quantum error correction"
		cfg.ReportLength = length

		p := BuildPrompt(cfg)

		matches := 0
		for _, g := range lengthGuidance {
			matches += strings.Count(p, g)
		}
		assert.Equal(t, 1, matches, "length %d", length)

		want, _ := LengthGuidance(length)
		assert.Contains(t, p, want)
	}
}

func TestBuildPrompt_Structure(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Topic = "Soil erosion"
	p := BuildPrompt(cfg)

	assert.True(t, strings.HasPrefix(p, `Generate a comprehensive technical report on the topic: "Soil erosion".`))
	for _, section := range []string{"1. Executive Summary", "2. Introduction", "3. Main Content", "4. Conclusion", "5. References"} {
		assert.Contains(t, p, section)
	}
	assert.Contains(t, p, "Use # for main headings")
	assert.Contains(t, p, "Use ## for subheadings")
	assert.NotContains(t, p, "[Image:")
	assert.NotContains(t, p, "[Graph:")
}

func TestBuildPrompt_Markers(t *testing.T) {
	cfg := DefaultConfiguration()
	cfg.Topic = "Bridges"
	cfg.IncludeImages = true
	cfg.ImageCount = 4
	cfg.IncludeGraphs = true

	p := BuildPrompt(cfg)

	assert.Contains(t, p, "Include 4 placeholders for images by adding: [Image: brief description of relevant image]")
	assert.Contains(t, p, "[Graph: description of the data visualization]")
}

func TestConfiguration_Validate(t *testing.T) {
	valid := DefaultConfiguration()
	valid.Topic = "Topic"

	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr bool
	}{
		{"valid", func(c *Configuration) {}, false},
		{"blank topic", func(c *Configuration) { c.Topic = "   " }, true},
		{"length zero", func(c *Configuration) { c.ReportLength = 0 }, true},
		{"length six", func(c *Configuration) { c.ReportLength = 6 }, true},
		{"negative images", func(c *Configuration) { c.ImageCount = -1 }, true},
		{"zero images", func(c *Configuration) { c.ImageCount = 0; c.IncludeImages = true }, false},
		{"unknown style", func(c *Configuration) { c.ReportStyle = "casual" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfiguration_WantsImages(t *testing.T) {
	cfg := DefaultConfiguration()
	assert.False(t, cfg.WantsImages())
	cfg.IncludeImages = true
	assert.True(t, cfg.WantsImages())
	cfg.ImageCount = 0
	assert.False(t, cfg.WantsImages())
}
