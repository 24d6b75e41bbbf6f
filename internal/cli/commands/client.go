package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/creatorbridge/creatorbridge/internal/web/response"
)

// toolClient calls a running creatorbridge server
type toolClient struct {
	base  string
	token string
	http  *http.Client
}

// callError is a tool failure reported by the server
type callError struct {
	Status int
	response.ErrorResponse
}

func (e *callError) Error() string {
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

func newToolClient(base, token string, timeout time.Duration) *toolClient {
	return &toolClient{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{Timeout: timeout},
	}
}

// get calls a GET tool with query arguments
func (c *toolClient) get(ctx context.Context, tool string, args url.Values) (json.RawMessage, error) {
	target := c.base + "/tools/" + tool
	if len(args) > 0 {
		target += "?" + args.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// post calls a POST tool with a JSON body
func (c *toolClient) post(ctx context.Context, tool string, args any) (json.RawMessage, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/tools/"+tool, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// history lists journal entries through the server
func (c *toolClient) history(ctx context.Context, instance string, limit int) (json.RawMessage, error) {
	q := url.Values{}
	if instance != "" {
		q.Set("instance", instance)
	}
	q.Set("limit", fmt.Sprint(limit))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/history?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *toolClient) do(req *http.Request) (json.RawMessage, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reach server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		ce := &callError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, &ce.ErrorResponse); err != nil || ce.Message == "" {
			ce.Message = strings.TrimSpace(string(data))
			ce.Code = http.StatusText(resp.StatusCode)
		}
		return nil, ce
	}
	return data, nil
}
