package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Body is the payload of a POST. The first non-empty field in the order
// Text, JSON, Buffer, Form is sent.
type Body struct {
	JSON   any
	Form   url.Values
	Text   string
	Buffer []byte
}

type payload struct {
	contentType string
	data        []byte
}

func (b Body) payload() (*payload, error) {
	switch {
	case b.Text != "":
		return &payload{contentType: "text/plain; charset=utf-8", data: []byte(b.Text)}, nil
	case b.JSON != nil:
		data, err := json.Marshal(b.JSON)
		if err != nil {
			return nil, fmt.Errorf("failed to encode JSON body: %w", err)
		}
		return &payload{contentType: "application/json", data: data}, nil
	case len(b.Buffer) > 0:
		return &payload{contentType: "application/octet-stream", data: b.Buffer}, nil
	case len(b.Form) > 0:
		return &payload{
			contentType: "application/x-www-form-urlencoded; charset=utf-8",
			data:        []byte(b.Form.Encode()),
		}, nil
	default:
		return nil, ErrMissingBody
	}
}

// Post sends body to rawURL and decodes the response like Get.
func (c *Client) Post(ctx context.Context, rawURL string, body Body) (*Result, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	p, err := body.payload()
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, u, p)
}
