package render

import (
	"bytes"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	rpdf "rsc.io/pdf"
)

// PageCount reports the number of pages of a PDF document.
func PageCount(r io.ReaderAt, size int64) (n int, err error) {
	// rsc.io/pdf panics on some malformed inputs
	defer func() {
		if p := recover(); p != nil {
			err = goerr.New("malformed pdf", goerr.V("panic", p))
		}
	}()
	doc, err := rpdf.NewReader(r, size)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open pdf")
	}
	return doc.NumPage(), nil
}

func PageCountBytes(b []byte) (int, error) {
	return PageCount(bytes.NewReader(b), int64(len(b)))
}

func PageCountFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to open file", goerr.V("path", path))
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, goerr.Wrap(err, "failed to stat file", goerr.V("path", path))
	}
	return PageCount(f, st.Size())
}
