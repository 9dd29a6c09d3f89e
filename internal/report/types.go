// Package report holds the report domain: configuration, prompt building,
// image prompt planning and the transformation of generated text into
// document blocks.
package report

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

type Style string

const StyleAcademic Style = "academic"

var ErrInvalidConfig = errors.New("invalid report configuration")

// Configuration is what the user picks before a generation cycle. JSON names
// match the history format written by the browser version of the tool.
type Configuration struct {
	Topic         string `json:"topic"`
	IncludeImages bool   `json:"includeImages"`
	IncludeGraphs bool   `json:"includeGraphs"`
	ReportLength  int    `json:"reportLength"`
	ImageCount    int    `json:"imageCount"`
	ReportStyle   Style  `json:"reportStyle"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		ReportLength: 3,
		ImageCount:   2,
		ReportStyle:  StyleAcademic,
	}
}

// Validate is the configuration boundary: everything downstream assumes a
// validated value.
func (c Configuration) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return goerr.Wrap(ErrInvalidConfig, "topic is required")
	}
	if c.ReportLength < MinLength || c.ReportLength > MaxLength {
		return goerr.Wrap(ErrInvalidConfig, "report length out of range", goerr.V("report_length", c.ReportLength))
	}
	if c.ImageCount < 0 {
		return goerr.Wrap(ErrInvalidConfig, "image count must not be negative", goerr.V("image_count", c.ImageCount))
	}
	if c.ReportStyle != StyleAcademic {
		return goerr.Wrap(ErrInvalidConfig, "unsupported report style", goerr.V("report_style", c.ReportStyle))
	}
	return nil
}

// WantsImages reports whether image acquisition should run at all.
func (c Configuration) WantsImages() bool {
	return c.IncludeImages && c.ImageCount > 0
}

// Asset is one acquired image. ImageURL is either a data URI or a remote URL.
type Asset struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
}

const placeholderHost = "placeholder.com"

func (a Asset) IsPlaceholder() bool {
	return strings.Contains(a.ImageURL, placeholderHost)
}

func (a Asset) IsDataURI() bool {
	return strings.HasPrefix(a.ImageURL, "data:")
}

// DataURI encodes raw image bytes as an embeddable base64 data URI.
func DataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode returns the MIME type and bytes of a base64 data URI asset.
func (a Asset) Decode() (string, []byte, error) {
	if !a.IsDataURI() {
		return "", nil, goerr.New("asset is not a data URI")
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(a.ImageURL, "data:"), ",")
	if !ok {
		return "", nil, goerr.New("malformed data URI")
	}
	mimeType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, goerr.New("data URI is not base64 encoded", goerr.V("header", header))
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, goerr.Wrap(err, "failed to decode data URI payload")
	}
	return mimeType, data, nil
}

// Draft is a freshly generated report before the history assigns it an
// identity.
type Draft struct {
	Topic   string
	Content string
	Style   Style
	Config  Configuration
	Images  []Asset
}

type SavedReport struct {
	ID      string        `json:"id"`
	Topic   string        `json:"topic"`
	Content string        `json:"content"`
	Style   Style         `json:"style"`
	Date    time.Time     `json:"date"`
	Config  Configuration `json:"config"`
	Images  []Asset       `json:"images,omitempty"`
}
