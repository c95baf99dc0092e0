package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/report"
)

// statusError is a non-success HTTP response.
type statusError struct {
	Status int
	Code   string
	Body   string
}

func (e *statusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("http %d: %s", e.Status, e.Body)
}

// rejected reports a 4xx answer, which the server gave deliberately.
func (e *statusError) rejected() bool {
	return e.Status >= http.StatusBadRequest && e.Status < http.StatusInternalServerError
}

// client is a thin JSON client for the loftmatch HTTP API.
type client struct {
	base string
	http *http.Client
}

func newClient(base string, timeout time.Duration) *client {
	return &client{base: base, http: &http.Client{Timeout: timeout}}
}

func (c *client) health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *client) upload(ctx context.Context, name string, csv []byte) (types.DatasetSummary, error) {
	var summary types.DatasetSummary
	path := "/datasets?format=csv&name=" + url.QueryEscape(name)
	err := c.do(ctx, http.MethodPost, path, "text/csv", bytes.NewReader(csv), &summary)
	return summary, err
}

func (c *client) score(ctx context.Context, sessionID, maleID, femaleID string) (report.Report, error) {
	var rep report.Report
	body, err := json.Marshal(map[string]string{"male_id": maleID, "female_id": femaleID})
	if err != nil {
		return rep, err
	}
	err = c.do(ctx, http.MethodPost, "/datasets/"+url.PathEscape(sessionID)+"/score",
		"application/json", bytes.NewReader(body), &rep)
	return rep, err
}

func (c *client) matches(ctx context.Context, sessionID, id, side string) (types.Matches, error) {
	var res types.Matches
	body, err := json.Marshal(map[string]string{"id": id, "side": side})
	if err != nil {
		return res, err
	}
	err = c.do(ctx, http.MethodPost, "/datasets/"+url.PathEscape(sessionID)+"/matches",
		"application/json", bytes.NewReader(body), &res)
	return res, err
}

func (c *client) remove(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/datasets/"+url.PathEscape(sessionID), "", nil, nil)
}

// do sends one request and decodes a JSON answer into out when out is set.
func (c *client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		se := &statusError{Status: resp.StatusCode, Body: string(data)}
		var apiErr struct {
			Code string `json:"code"`
		}
		if json.Unmarshal(data, &apiErr) == nil {
			se.Code = apiErr.Code
		}
		return se
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}
