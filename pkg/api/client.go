// Package api is the client for the gifting platform's REST backend.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/giftwise/giftwise/pkg/session"
	"github.com/giftwise/giftwise/pkg/vcard"
	"github.com/giftwise/giftwise/pkg/whttp"
)

// ErrSessionExpired is returned after a 401. The stored auth cookies have
// already been cleared when it is returned.
var ErrSessionExpired = errors.New("session expired, please log in again")

// ErrNotFound matches any 404 Error.
var ErrNotFound = errors.New("not found")

// Error is a non-2xx backend response.
type Error struct {
	Op        string
	Status    int
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// Is lets callers match a 404 against ErrNotFound and vcard.ErrNotFound.
func (e *Error) Is(target error) bool {
	if e.Status != http.StatusNotFound {
		return false
	}
	return target == ErrNotFound || target == vcard.ErrNotFound
}

type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}

// Client talks to the backend on behalf of the session in Store.
type Client struct {
	BaseURL string
	HTTP    *retryablehttp.Client
	Store   session.Store
	Log     Logger
}

func New(baseURL string, httpClient *retryablehttp.Client, store session.Store) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Store:   store,
		Log:     nopLogger{},
	}
}

// Session returns the current session or session.ErrNoSession.
func (c *Client) Session() (session.Session, error) {
	s, err := c.Store.Load()
	if err != nil {
		return session.Session{}, err
	}
	if !s.Valid() {
		return session.Session{}, fmt.Errorf("incomplete session: user and organization are required")
	}
	return s, nil
}

type request struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string
	public      bool
}

func (c *Client) do(ctx context.Context, r request) (*whttp.WHTTPRes, error) {
	wReq := &whttp.WHTTPReq{
		Method:      r.method,
		URL:         c.BaseURL + r.path,
		Body:        r.body,
		ContentType: r.contentType,
	}

	if s, err := c.Store.Load(); err == nil {
		wReq.Headers = append(wReq.Headers, whttp.WHTTPHeader{Name: "Authorization", Value: "Bearer " + s.Token})
	} else if !r.public {
		return nil, err
	}

	c.Log.Debugf("%s %s", r.method, wReq.URL)
	res, err := whttp.SendHTTPRequest(ctx, wReq, c.HTTP)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", r.op, err)
	}

	if res.StatusCode == http.StatusUnauthorized {
		if cerr := c.Store.Clear(); cerr != nil {
			c.Log.Warnf("Could not clear auth cookies: %v", cerr)
		}
		return nil, ErrSessionExpired
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &Error{
			Op:        r.op,
			Status:    res.StatusCode,
			Message:   errorMessage(res.BodyString, r.op),
			RequestID: res.RequestID,
		}
	}
	return res, nil
}

// errorMessage prefers the backend's own message.
func errorMessage(body, op string) string {
	if gjson.Valid(body) {
		for _, path := range []string{"message", "error.message", "error", "errors.0.message"} {
			if v := gjson.Get(body, path); v.Type == gjson.String && v.Str != "" {
				return v.Str
			}
		}
	}
	return "failed to " + op
}

// unwrap returns the first of keys present in body, or the body itself.
func unwrap(body string, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := gjson.Get(body, k); v.Exists() && (v.IsObject() || v.IsArray()) {
			return v
		}
	}
	return gjson.Parse(body)
}

func (c *Client) orgPath(s session.Session, parts ...string) string {
	p := "/v1/organizations/" + url.PathEscape(s.OrganizationID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}
