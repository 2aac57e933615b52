package airtable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const DefaultBaseURL = "https://api.airtable.com"

var (
	ErrTableNotFound = errors.New("airtable table or base not found")
	ErrUnauthorized  = errors.New("airtable token is invalid or lacks permissions")
	ErrUnreachable   = errors.New("airtable is unreachable")
)

// Record is one row of an Airtable table
type Record struct {
	ID          string                 `json:"id"`
	CreatedTime string                 `json:"createdTime"`
	Fields      map[string]interface{} `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client talks to the Airtable REST API
type Client struct {
	BaseURL    string
	BaseID     string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new Airtable client against the public API
func NewClient(baseID, token string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		BaseID:     baseID,
		Token:      token,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError represents an Airtable API error
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable API error [%d]: %s", e.StatusCode, e.Message)
}

// FetchTable returns every record of a table, following offset pagination.
func (c *Client) FetchTable(ctx context.Context, tableID string) ([]Record, error) {
	records := make([]Record, 0)
	offset := ""
	for {
		page, err := c.fetchPage(ctx, tableID, offset)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (c *Client) fetchPage(ctx context.Context, tableID, offset string) (listResponse, error) {
	endpoint := fmt.Sprintf("%s/v0/%s/%s", c.BaseURL, url.PathEscape(c.BaseID), url.PathEscape(tableID))
	if offset != "" {
		endpoint += "?" + url.Values{"offset": {offset}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return listResponse{}, fmt.Errorf("failed to build airtable request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return listResponse{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return listResponse{}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return listResponse{}, fmt.Errorf("%w: base %s, table %s", ErrTableNotFound, c.BaseID, tableID)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return listResponse{}, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return listResponse{}, &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body, resp.StatusCode)}
	}

	var page listResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return listResponse{}, fmt.Errorf("failed to decode airtable response: %w", err)
	}
	return page, nil
}

// errorMessage extracts the message from either error body shape Airtable
// uses: {"error": "CODE"} or {"error": {"type": ..., "message": ...}}.
func errorMessage(body []byte, status int) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var detailed struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &detailed); err == nil {
			if detailed.Message != "" {
				return detailed.Message
			}
			if detailed.Type != "" {
				return detailed.Type
			}
		}
		var code string
		if err := json.Unmarshal(envelope.Error, &code); err == nil && code != "" {
			return code
		}
	}
	return http.StatusText(status)
}
