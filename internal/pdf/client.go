// Package pdf talks to the PDF generation and document services and merges
// the results into bundled letters.
package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	httpclient "tya-notifications/internal/common/http"
	"tya-notifications/internal/common/logger"
)

// CoverLetterClient renders cover letters through the PDF service.
type CoverLetterClient struct {
	http    *httpclient.Client
	baseURL string
	logger  logger.Logger
}

func NewCoverLetterClient(client *httpclient.Client, baseURL string, log logger.Logger) *CoverLetterClient {
	return &CoverLetterClient{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  log.WithFields(map[string]interface{}{"component": "pdf-service"}),
	}
}

type coverLetterRequest struct {
	TemplatePath string            `json:"templatePath"`
	CaseID       string            `json:"caseId"`
	Values       map[string]string `json:"values"`
}

func (c *CoverLetterClient) GenerateCoverLetter(ctx context.Context, templatePath, caseID string, placeholders map[string]string) ([]byte, error) {
	body, err := json.Marshal(coverLetterRequest{
		TemplatePath: templatePath,
		CaseID:       caseID,
		Values:       placeholders,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal cover letter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pdfs", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	pdf, err := c.http.Bytes(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate cover letter %s: %w", templatePath, err)
	}

	c.logger.Debug("cover letter generated", map[string]interface{}{
		"caseId":       caseID,
		"templatePath": templatePath,
		"bytes":        len(pdf),
	})
	return pdf, nil
}

// EvidenceClient downloads stored case documents on behalf of a service
// user.
type EvidenceClient struct {
	http   *httpclient.Client
	userID string
}

func NewEvidenceClient(client *httpclient.Client, userID string) *EvidenceClient {
	return &EvidenceClient{http: client, userID: userID}
}

func (e *EvidenceClient) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("user-id", e.userID)
	req.Header.Set("Accept", "application/pdf")

	doc, err := e.http.Bytes(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("download evidence: %w", err)
	}
	return doc, nil
}
