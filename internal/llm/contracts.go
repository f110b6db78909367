package llm

import "context"

// ExtractRequest carries one uploaded document to the model.
type ExtractRequest struct {
	FileBytes []byte
	MIMEType  string

	FilenameHint string
	BatchID      string
}

// DocumentExtractor is the interface the extraction pipeline depends on.
// Implementations return the raw response text; parsing into records is the
// caller's concern.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, req ExtractRequest) (string, error)
}
