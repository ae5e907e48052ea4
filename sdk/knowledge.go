package assistant

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
)

// KnowledgeService manages an assistant's knowledge-base documents.
type KnowledgeService struct {
	client *Client
}

// List fetches the documents indexed for an assistant.
func (s *KnowledgeService) List(ctx context.Context, assistantID int) ([]KnowledgeDocument, error) {
	var docs []KnowledgeDocument
	path := fmt.Sprintf("/assistant/%d/knowledge", assistantID)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// UploadFile submits a document file for ingestion.
func (s *KnowledgeService) UploadFile(ctx context.Context, assistantID int, fileName string, content io.Reader) (*KnowledgeDocument, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, NewInvalidRequestError("file name must not be empty")
	}
	return s.uploadMultipart(ctx, assistantID, fileName, content)
}

func (s *KnowledgeService) uploadMultipart(ctx context.Context, assistantID int, fileName string, content io.Reader) (*KnowledgeDocument, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart form: %w", err)
	}

	path := fmt.Sprintf("/assistant/%d/upload", assistantID)
	var doc KnowledgeDocument
	if err := s.client.doRaw(ctx, http.MethodPost, path, buf.Bytes(), writer.FormDataContentType(), &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// UploadURL submits a web page URL for ingestion.
func (s *KnowledgeService) UploadURL(ctx context.Context, assistantID int, pageURL string) (*KnowledgeDocument, error) {
	if strings.TrimSpace(pageURL) == "" {
		return nil, NewInvalidRequestError("url must not be empty")
	}
	path := fmt.Sprintf("/assistant/%d/upload", assistantID)
	var doc KnowledgeDocument
	if err := s.client.doJSON(ctx, http.MethodPost, path, map[string]string{"url": pageURL}, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// SubmitText submits authored text as a knowledge document. The
// ingestion endpoint only accepts file parts, so the text goes up as a
// synthetic manual_input.txt.
func (s *KnowledgeService) SubmitText(ctx context.Context, assistantID int, text string) (*KnowledgeDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, NewInvalidRequestError("text must not be empty")
	}
	return s.uploadMultipart(ctx, assistantID, "manual_input.txt", strings.NewReader(text))
}
