// Package ai wraps the generative services a report is produced with: one
// text generator for the report body and one image generator for figures.
package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

var (
	// ErrMissingCredential means no API key is configured for the provider.
	ErrMissingCredential = errors.New("ai credential is not configured")
	ErrEmptyResponse     = errors.New("ai returned an empty response")
	// ErrNoImage means the image model answered without an inline image part.
	ErrNoImage = errors.New("ai response contains no image")
)

type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (Image, error)
}

type Image struct {
	MIMEType string
	Data     []byte
}

// Mock produces deterministic output without calling any service. It backs
// AI_PROVIDER=mock for offline runs and demos.
type Mock struct{}

func (Mock) GenerateText(ctx context.Context, prompt string) (string, error) {
	topic := quotedTopic(prompt)
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", topic)
	b.WriteString("## Executive Summary\n\n")
	fmt.Fprintf(&b, "This report gives an overview of %s.\n\n", topic)
	b.WriteString("## Introduction\n\n")
	fmt.Fprintf(&b, "%s is introduced together with its research context.\n\n", topic)
	if strings.Contains(prompt, "[Image:") {
		fmt.Fprintf(&b, "[Image: overview diagram of %s]\n\n", topic)
	}
	b.WriteString("## Main Content\n\n")
	b.WriteString("- Background\n- Methodology\n- Findings\n\n")
	b.WriteString("```\nresult = analyse(data)\n```\n\n")
	if strings.Contains(prompt, "[Graph:") {
		fmt.Fprintf(&b, "[Graph: trend of published work on %s]\n\n", topic)
	}
	b.WriteString("## Conclusion\n\n")
	b.WriteString("The findings summarise the current state of the field.\n\n")
	b.WriteString("## References\n\n1. Example reference.\n")
	return b.String(), nil
}

func (Mock) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	img := imaging.New(320, 200, color.NRGBA{R: 0x1a, G: 0x36, B: 0x5d, A: 0xff})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Image{}, err
	}
	return Image{MIMEType: "image/png", Data: buf.Bytes()}, nil
}

func quotedTopic(prompt string) string {
	_, rest, ok := strings.Cut(prompt, "\"")
	if !ok {
		return "Report"
	}
	topic, _, ok := strings.Cut(rest, "\"")
	if !ok || strings.TrimSpace(topic) == "" {
		return "Report"
	}
	return topic
}
