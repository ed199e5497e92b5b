// MFP - Miulti-Function Printers and scanners toolkit
// eSCL core protocol
//
// Copyright (C) 2024 and up by Alexander Pevzner (pzz@apevzner.com)
// See LICENSE for license terms and conditions
//
// Client side of the eSCL wire protocol.
//
// The endpoint shapes here (ScanJobs, {JobUri}/NextDocument, DELETE
// {JobUri}) mirror proto/escl.AbstractServer in the teacher toolkit, which
// implements the server side of the same protocol.

package escl

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrBusy is returned by Client.Start when the device reports HTTP 503:
// a scan is already in progress on it.
var ErrBusy = errors.New("escl: scanner busy")

// ErrNotReady is returned by Client.NextDocument when the device has not
// produced a page yet and the caller's context has not been canceled.
var ErrNotReady = errors.New("escl: document not ready")

// Client talks eSCL to a single scanner over its base URL.
//
// TLS verification is disabled here and only here: eSCL devices ship
// self-signed certificates, and this exemption must never leak into a
// shared HTTP client used for anything else (see spec §6, §9).
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
}

// NewClient returns a Client for the scanner reachable at baseURL
// (e.g. "https://192.168.1.50/eSCL").
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("escl: invalid base url: %w", err)
	}

	return &Client{
		BaseURL: u,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
	}, nil
}

// Start POSTs a scan intent and returns the backend-issued job id (the
// last path segment of the Location header the device returns). It
// returns ErrBusy, not an error, on HTTP 503 — a scanner being busy is an
// expected outcome, not a transport failure.
func (c *Client) Start(ctx context.Context, ss ScanSettings) (jobID string, err error) {
	body := []byte(ss.ToXML().EncodeString(NsMap))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.url("ScanJobs"), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", HTTPContentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("escl: start: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusServiceUnavailable, http.StatusConflict:
		return "", ErrBusy
	case http.StatusCreated:
		loc := resp.Header.Get("Location")
		if loc == "" {
			return "", errors.New("escl: start: missing Location header")
		}
		return lastPathSegment(loc), nil
	default:
		return "", fmt.Errorf("escl: start: unexpected status %s", resp.Status)
	}
}

// NextDocument waits for the device to deliver one document (a PDF page)
// for jobID. The wait ends when the context is canceled or when the
// client's 10 s HTTP timeout (set in NewClient) elapses, whichever comes
// first; it does not wait longer than that. A 404 is reported as io.EOF
// and a 503 as ErrNotReady.
func (c *Client) NextDocument(ctx context.Context, jobID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.url("ScanJobs", jobID, "NextDocument"), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("escl: next document: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return io.ReadAll(resp.Body)
	case http.StatusNotFound:
		return nil, io.EOF
	case http.StatusServiceUnavailable:
		return nil, ErrNotReady
	default:
		return nil, fmt.Errorf("escl: next document: unexpected status %s", resp.Status)
	}
}

// Delete terminates jobID on the device. It is idempotent: a 404 from an
// already-finished/deleted job is treated as success.
func (c *Client) Delete(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.url("ScanJobs", jobID), nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("escl: delete: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	return fmt.Errorf("escl: delete: unexpected status %s", resp.Status)
}

// Capabilities fetches the raw ScannerCapabilities document. Diagnostic
// only — nothing in the orchestration core depends on its content.
func (c *Client) Capabilities(ctx context.Context) ([]byte, error) {
	return c.getRaw(ctx, "ScannerCapabilities")
}

// Status fetches and decodes the ScannerStatus document. Diagnostic only —
// nothing in the orchestration core depends on its content.
func (c *Client) Status(ctx context.Context) (ScannerStatus, error) {
	body, err := c.getRaw(ctx, "ScannerStatus")
	if err != nil {
		return ScannerStatus{}, err
	}
	return DecodeScannerStatus(body)
}

func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("escl: %s: unexpected status %s", path, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) url(segments ...string) string {
	u := *c.BaseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strings.Join(segments, "/")
	return u.String()
}

func lastPathSegment(raw string) string {
	raw = strings.TrimSuffix(raw, "/")
	if i := strings.LastIndexByte(raw, '/'); i >= 0 {
		return raw[i+1:]
	}
	return raw
}
