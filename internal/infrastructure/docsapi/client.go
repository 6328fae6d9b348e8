package docsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docify/internal/domain/entity"
	"docify/internal/domain/repository"
	"docify/internal/infrastructure/metrics"
)

const defaultBaseURL = "https://docs.googleapis.com"

// Client talks to a Google-Docs-style REST API: read the document body to
// find a safe insertion index, then submit one batchUpdate with the formatted
// entry. The index read and the write always happen within the same call so
// no stale offset from an earlier request can leak into a write.
type Client struct {
	baseURL string
	tokens  *tokenSource
	client  *http.Client
	saEmail string
}

func NewClient(sa ServiceAccount, baseURL string, timeout time.Duration) repository.DocumentWriter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		baseURL: baseURL,
		tokens:  newTokenSource(sa, httpClient),
		client:  httpClient,
		saEmail: sa.ClientEmail,
	}
}

// ServiceAccountEmail is the identity the target document must be shared with.
func (c *Client) ServiceAccountEmail() string {
	return c.saEmail
}

func (c *Client) DocURL(docID string) string {
	return "https://docs.google.com/document/d/" + docID
}

func (c *Client) Ready() bool {
	return c.saEmail != ""
}

func (c *Client) WriteEntry(ctx context.Context, docID string, doc *entity.StructuredDocument, m *entity.GenerationMetrics, ts time.Time) error {
	index, err := c.safeInsertionIndex(ctx, docID)
	if err != nil {
		metrics.IncDocWrite(writeResultLabel(err))
		return fmt.Errorf("read insertion point: %w", err)
	}

	requests := BuildEntryRequests(index, doc, m, ts)
	if err := c.batchUpdate(ctx, docID, requests); err != nil {
		metrics.IncDocWrite(writeResultLabel(err))
		return fmt.Errorf("batch update: %w", err)
	}

	metrics.IncDocWrite("ok")
	return nil
}

type documentBody struct {
	Body struct {
		Content []struct {
			StartIndex int64           `json:"startIndex"`
			EndIndex   int64           `json:"endIndex"`
			Paragraph  json.RawMessage `json:"paragraph,omitempty"`
		} `json:"content"`
	} `json:"body"`
}

// safeInsertionIndex reads the current document and returns an index at or
// before the body end. An empty body inserts at 1, the first valid position.
func (c *Client) safeInsertionIndex(ctx context.Context, docID string) (int64, error) {
	var doc documentBody
	url := fmt.Sprintf("%s/v1/documents/%s?fields=body.content(startIndex,endIndex,paragraph)", c.baseURL, docID)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &doc); err != nil {
		return 0, err
	}

	content := doc.Body.Content
	if len(content) == 0 {
		return 1, nil
	}
	index := content[len(content)-1].EndIndex - 1
	if index < 1 {
		index = 1
	}
	return index, nil
}

func (c *Client) batchUpdate(ctx context.Context, docID string, requests []Request) error {
	url := fmt.Sprintf("%s/v1/documents/%s:batchUpdate", c.baseURL, docID)
	body := map[string]any{"requests": requests}
	return c.doJSON(ctx, http.MethodPost, url, body, nil)
}

func (c *Client) doJSON(ctx context.Context, method, url string, body, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		metrics.IncError("docsapi", "token")
		return fmt.Errorf("obtain access token: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			metrics.IncError("docsapi", "marshal_request")
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		metrics.IncError("docsapi", "create_request")
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.IncError("docsapi", "http_do")
		return fmt.Errorf("docs api request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.IncError("docsapi", "read_response")
		return fmt.Errorf("read docs api response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.IncError("docsapi", fmt.Sprintf("api_error_%d", resp.StatusCode))
		return classifyAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			metrics.IncError("docsapi", "decode_response")
			return fmt.Errorf("decode docs api response: %w", err)
		}
	}
	return nil
}

// classifyAPIError maps API failures to the two kinds callers can act on:
// permission denial needs a user to share the document, an index error means
// the document changed under us and a retry with a fresh read suffices.
func classifyAPIError(status int, body []byte) error {
	msg := apiErrorMessage(body)
	switch {
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %d - %s", entity.ErrDocumentPermissionDenied, status, msg)
	case status == http.StatusBadRequest && isIndexError(msg):
		return fmt.Errorf("%w: %d - %s", entity.ErrDocumentWriteConflict, status, msg)
	default:
		return fmt.Errorf("docs api error: %d - %s", status, msg)
	}
}

func apiErrorMessage(body []byte) string {
	var parsed struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	return string(body)
}

func isIndexError(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "index") ||
		strings.Contains(lower, "out of bounds") ||
		strings.Contains(lower, "invalid range")
}

func writeResultLabel(err error) string {
	switch entity.KindOf(err) {
	case entity.KindDocumentPermissionDenied:
		return "permission_denied"
	case entity.KindDocumentWriteConflict:
		return "conflict"
	default:
		return "error"
	}
}
