package airtable

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("appBASE", "secret")
	c.BaseURL = srv.URL
	c.HTTPClient = srv.Client()
	return c
}

func TestFetchTable_Paginates(t *testing.T) {
	var offsets []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v0/appBASE/tblPunches", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		offset := r.URL.Query().Get("offset")
		offsets = append(offsets, offset)
		w.Header().Set("Content-Type", "application/json")
		if offset == "" {
			_, _ = w.Write([]byte(`{"records":[{"id":"rec1","fields":{"Fecha":"2024-03-04"}}],"offset":"itr2"}`))
			return
		}
		_, _ = w.Write([]byte(`{"records":[{"id":"rec2","fields":{}}]}`))
	}))
	defer srv.Close()

	records, err := newTestClient(srv).FetchTable(context.Background(), "tblPunches")

	require.NoError(t, err)
	assert.Equal(t, []string{"", "itr2"}, offsets)
	require.Len(t, records, 2)
	assert.Equal(t, "rec1", records[0].ID)
	assert.Equal(t, "2024-03-04", records[0].Fields["Fecha"])
	assert.Equal(t, "rec2", records[1].ID)
}

func TestFetchTable_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"not found", http.StatusNotFound, `{"error":"NOT_FOUND"}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrTableNotFound)
		}},
		{"unauthorized", http.StatusUnauthorized, `{}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
		}},
		{"forbidden", http.StatusForbidden, `{}`, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, ErrUnauthorized)
		}},
		{"detailed api error", http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_REQUEST","message":"bad filter"}}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
			assert.Equal(t, "bad filter", apiErr.Message)
		}},
		{"code-only api error", http.StatusTooManyRequests, `{"error":"RATE_LIMITED"}`, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "RATE_LIMITED", apiErr.Message)
		}},
		{"empty body", http.StatusInternalServerError, ``, func(t *testing.T, err error) {
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, "Internal Server Error", apiErr.Message)
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				_, _ = w.Write([]byte(c.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv).FetchTable(context.Background(), "tbl")

			require.Error(t, err)
			c.check(t, err)
		})
	}
}

func TestFetchTable_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(srv)
	srv.Close()

	_, err := c.FetchTable(context.Background(), "tbl")

	assert.ErrorIs(t, err, ErrUnreachable)
}
