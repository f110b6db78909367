// Package document inspects uploaded files before they are sent to the
// model. Inspection is diagnostic only: the core enforces no size or
// page-count limits (the remote model's limits surface as model failures).
package document

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Info describes one uploaded file.
type Info struct {
	Filename string
	MIMEType string
	Size     int
	Pages    int // 0 when unknown or not a PDF
}

// Inspect resolves the effective MIME type and, for PDFs, the page count.
// A PDF that fails validation is still forwarded to the model; the problem
// is logged and Pages stays 0.
func Inspect(filename, declaredMIME string, data []byte, logger *slog.Logger) Info {
	if logger == nil {
		logger = slog.Default()
	}

	mimeType := strings.TrimSpace(declaredMIME)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
		if i := strings.Index(mimeType, ";"); i >= 0 {
			mimeType = mimeType[:i]
		}
	}

	info := Info{Filename: filename, MIMEType: mimeType, Size: len(data)}
	if mimeType == "application/pdf" {
		info.Pages = pdfPageCount(data, logger)
	}

	logger.Info("document.inspect",
		"filename", filename,
		"mime_type", info.MIMEType,
		"bytes", info.Size,
		"pages", info.Pages,
	)
	return info
}

func pdfPageCount(data []byte, logger *slog.Logger) int {
	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		logger.Warn("document.pdf.validate_failed", "error", err)
		return 0
	}
	return pdfContext.PageCount
}
