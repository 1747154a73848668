package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/good-yellow-bee/trackadmin/internal/metrics"
)

// Attachment is a file waiting to be uploaded with a draft.
type Attachment struct {
	Name    string
	Content []byte
}

// Documents uploads attachments.
type Documents struct {
	c *Client
}

// NewDocuments creates a documents client.
func NewDocuments(c *Client) *Documents {
	return &Documents{c: c}
}

type uploadedDocument struct {
	ID string `json:"id"`
}

// Upload sends one file as multipart form data and returns its document id.
// kind is the owning entity name and userID the uploading user.
func (d *Documents) Upload(ctx context.Context, a Attachment, userID, kind string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"Id":     uuid.New().String(),
		"UserId": userID,
		"Kind":   kind,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := w.CreateFormFile("File", a.Name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(a.Content)); err != nil {
		return "", fmt.Errorf("copy file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	var out uploadedDocument
	_, err = d.c.do(ctx, request{
		op:          "Documents.upload",
		method:      http.MethodPost,
		path:        "Documents/Upload",
		rawBody:     &buf,
		contentType: w.FormDataContentType(),
	}, &out)
	if err != nil {
		metrics.DocumentUploadsTotal.WithLabelValues("failed").Inc()
		return "", err
	}
	if out.ID == "" {
		metrics.DocumentUploadsTotal.WithLabelValues("failed").Inc()
		return "", &Error{Kind: KindServerError, Op: "Documents.upload", Message: "upload returned no document id"}
	}
	metrics.DocumentUploadsTotal.WithLabelValues("ok").Inc()
	return out.ID, nil
}
