package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/commodityavg/internal/infra"
	"github.com/seenimoa/commodityavg/pkg/models"
	"github.com/seenimoa/commodityavg/pkg/utils"
)

// excerptLen bounds the raw body kept for non-JSON diagnostics.
const excerptLen = 200

// fetch performs the request and classifies the response.
func (c *Controller) fetch(ctx context.Context, reqURL string) State {
	resp, err := infra.DoGet(ctx, c.client, reqURL, infra.JSONHeaders())
	if err != nil {
		return Failure{Err: ErrorInfo{Message: err.Error(), Category: CategoryUnknown}}
	}
	return Classify(resp)
}

// Classify maps a received response onto Success or Failure. The content type
// is checked first, the body is parsed next, and the status is checked last
// so that error bodies can be read.
func Classify(resp *infra.Response) State {
	if !isJSON(resp.ContentType) {
		return Failure{Err: nonJSON(resp)}
	}

	if !resp.OK() {
		var body any
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return Failure{Err: ErrorInfo{
				Message:     fmt.Sprintf("parse error response: %v", err),
				Category:    CategoryUnknown,
				Status:      resp.Status,
				ContentType: resp.ContentType,
			}}
		}
		msg := errorField(body)
		if msg == "" {
			msg = fmt.Sprintf("HTTP error %d", resp.Status)
		}
		return Failure{Err: ErrorInfo{
			Message:     msg,
			Category:    CategoryHTTPError,
			Status:      resp.Status,
			ContentType: resp.ContentType,
		}}
	}

	var result models.DailyAverage
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return Failure{Err: ErrorInfo{
			Message:     fmt.Sprintf("parse response: %v", err),
			Category:    CategoryUnknown,
			Status:      resp.Status,
			ContentType: resp.ContentType,
		}}
	}
	return Success{Result: result}
}

// errorField returns the "error" member of a JSON object body when it is a
// non-empty string.
func errorField(body any) string {
	obj, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	msg, _ := obj["error"].(string)
	return msg
}

func nonJSON(resp *infra.Response) ErrorInfo {
	ct := resp.ContentType
	if ct == "" {
		ct = "(none)"
	}
	excerpt := utils.Truncate(string(resp.Body), excerptLen)
	return ErrorInfo{
		Message: fmt.Sprintf("Received non-JSON response from server. Content-Type: %s, Response: %s...",
			ct, excerpt),
		Category:    CategoryNonJSONResponse,
		Status:      resp.Status,
		ContentType: resp.ContentType,
		Excerpt:     excerpt,
		PageTitle:   htmlTitle(resp),
	}
}

// isJSON reports whether a Content-Type header declares JSON.
func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// htmlTitle extracts <title> from HTML error pages (proxies, gateways).
func htmlTitle(resp *infra.Response) string {
	mt, _, _ := mime.ParseMediaType(resp.ContentType)
	if mt != "text/html" && mt != "application/xhtml+xml" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}
