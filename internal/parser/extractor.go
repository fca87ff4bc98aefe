package parser

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"
)

var (
	// ErrUnreadableDocument indicates the byte stream could not be parsed as a PDF.
	ErrUnreadableDocument = errors.New("unreadable PDF document")

	// ErrEmptyDocument indicates the PDF parsed but contained no extractable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
)

// ExtractText pulls the plain text out of raw PDF bytes, page by page,
// pages joined with a newline. Pages that fail to extract or yield nothing
// are skipped; the whole document only fails if the stream is not a PDF or
// every page comes back empty.
func ExtractText(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnreadableDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadableDocument, err)
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			log.Debug().Int("page", i).Err(err).Msg("skipping unreadable page")
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	joined := strings.Join(pages, "\n")
	if strings.TrimSpace(joined) == "" {
		return "", ErrEmptyDocument
	}
	return joined, nil
}
