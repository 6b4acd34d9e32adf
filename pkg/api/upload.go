package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/tidwall/gjson"
)

// UploadKind selects the upload endpoint.
type UploadKind string

const (
	UploadImage    UploadKind = "image"
	UploadVideo    UploadKind = "video"
	UploadTemplate UploadKind = "template"
)

var uploadEndpoints = map[UploadKind]struct {
	path  string
	field string
	url   string
}{
	UploadImage:    {path: "/v1/public/upload/image", field: "image", url: "imageUrl"},
	UploadVideo:    {path: "/v1/public/upload/video", field: "video", url: "videoUrl"},
	UploadTemplate: {path: "/v1/public/templates/upload", field: "template", url: "templateUrl"},
}

// Upload sends r as a multipart file and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, kind UploadKind, filename string, r io.Reader) (string, error) {
	ep, ok := uploadEndpoints[kind]
	if !ok {
		return "", fmt.Errorf("unknown upload kind %q", kind)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(ep.field, filepath.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	op := "upload " + string(kind)
	res, err := c.do(ctx, request{
		op: op, method: http.MethodPost, path: ep.path,
		body: buf.Bytes(), contentType: mw.FormDataContentType(), public: true,
	})
	if err != nil {
		return "", err
	}

	if s := gjson.Get(res.BodyString, "success"); s.Exists() && !s.Bool() {
		return "", &Error{Op: op, Status: res.StatusCode, Message: errorMessage(res.BodyString, op), RequestID: res.RequestID}
	}
	for _, path := range []string{ep.url, "url", "data." + ep.url} {
		if u := gjson.Get(res.BodyString, path).String(); u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("failed to %s: response carried no URL", op)
}
