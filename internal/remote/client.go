package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/pronto/internal/model"
)

// Client reads and writes day records at {base}/users/{user}/records/{date}.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userID     string
}

// NewClient creates a client authenticated with tok. Refreshed tokens are
// written back to tokens.
func NewClient(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token, tokens *TokenStore, baseURL, userID string, log *zap.SugaredLogger) *Client {
	ts := &savingTokenSource{ts: cfg.TokenSource(ctx, tok), tokens: tokens, log: log}
	return NewClientWithHTTP(oauth2.NewClient(ctx, ts), baseURL, userID)
}

// NewClientWithHTTP creates a client that sends requests through hc as-is.
func NewClientWithHTTP(hc *http.Client, baseURL, userID string) *Client {
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
	}
}

func (c *Client) recordURL(date string) string {
	return fmt.Sprintf("%s/users/%s/records/%s", c.baseURL, url.PathEscape(c.userID), url.PathEscape(date))
}

// GetDay fetches the remote record for date. found is false when the remote
// has no record for that day.
func (c *Client) GetDay(ctx context.Context, date string) (rec model.DayRecord, found bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.recordURL(date), nil)
	if err != nil {
		return model.DayRecord{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return model.DayRecord{}, false, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusNotFound:
		return model.DayRecord{}, false, nil
	default:
		return model.DayRecord{}, false, fmt.Errorf("remote error %d: %s", status, string(body))
	}

	if err := json.Unmarshal(body, &rec); err != nil {
		return model.DayRecord{}, false, fmt.Errorf("decoding remote record %s: %w", date, err)
	}
	if rec.Date == "" {
		rec.Date = date
	}
	if rec.Entries == nil {
		rec.Entries = []model.Stamp{}
	}
	return rec, true, nil
}

// PutDay replaces the remote record for rec.Date.
func (c *Client) PutDay(ctx context.Context, rec model.DayRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.recordURL(rec.Date), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusCreated && status != http.StatusNoContent {
		return fmt.Errorf("remote error %d: %s", status, string(body))
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("remote request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, 0, fmt.Errorf("reading response body: %w", err)
	}
	return body, resp.StatusCode, nil
}
