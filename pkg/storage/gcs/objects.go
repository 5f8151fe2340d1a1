package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const publicURLPrefix = "https://storage.googleapis.com"

// Upload writes an object and returns its public URL. The object name should
// already be unique; uploads overwrite silently.
func (b *Bucket) Upload(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	if b == nil || b.client == nil {
		return "", errors.New("gcs bucket not initialized")
	}
	if objectName == "" {
		return "", errors.New("object name is required")
	}

	token, err := b.client.tokenSource.Token(ctx)
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/upload/storage/v1/b/%s/o?uploadType=media&name=%s",
		url.PathEscape(b.name),
		url.QueryEscape(objectName),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("gcs upload failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	return fmt.Sprintf("%s/%s/%s", publicURLPrefix, b.name, objectName), nil
}

// Delete removes an object by name. Missing objects are not an error; the
// caller's intent is already satisfied.
func (b *Bucket) Delete(ctx context.Context, objectName string) error {
	if b == nil || b.client == nil {
		return errors.New("gcs bucket not initialized")
	}
	if objectName == "" {
		return errors.New("object name is required")
	}

	token, err := b.client.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf(
		"https://storage.googleapis.com/storage/v1/b/%s/o/%s",
		url.PathEscape(b.name),
		url.PathEscape(objectName),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := b.client.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("gcs delete failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

// ObjectNameFromURL extracts the object name from a public URL produced by
// Upload. Returns an error for URLs outside this bucket.
func (b *Bucket) ObjectNameFromURL(publicURL string) (string, error) {
	prefix := fmt.Sprintf("%s/%s/", publicURLPrefix, b.name)
	if !strings.HasPrefix(publicURL, prefix) {
		return "", fmt.Errorf("url is not in bucket %s", b.name)
	}
	name := strings.TrimPrefix(publicURL, prefix)
	if name == "" {
		return "", errors.New("url has no object name")
	}
	return name, nil
}
