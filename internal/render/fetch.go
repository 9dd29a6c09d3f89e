package render

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// ImageFetcher loads remote figure images for embedding.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// maxImageBytes caps a single downloaded figure.
const maxImageBytes = 20 << 20

type HTTPImageFetcher struct {
	client *http.Client
}

func NewHTTPImageFetcher() *HTTPImageFetcher {
	return &HTTPImageFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (f *HTTPImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create image request", goerr.V("url", url))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to download image", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, goerr.New("image download failed", goerr.V("url", url), goerr.V("status", resp.StatusCode))
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		return nil, goerr.Wrap(err, "failed to read image", goerr.V("url", url))
	}
	return buf.Bytes(), nil
}
