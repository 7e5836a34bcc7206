package s3err

import (
	"encoding/xml"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"s3put/internal/sigv4"
)

func TestWriteProducesS3ErrorXML(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	Write(w, "req-123", AccessDenied, "bucket/key")
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "application/xml") {
		t.Fatalf("unexpected content type: %s", ct)
	}

	var parsed struct {
		XMLName   xml.Name `xml:"Error"`
		Code      string   `xml:"Code"`
		Message   string   `xml:"Message"`
		Resource  string   `xml:"Resource"`
		RequestID string   `xml:"RequestId"`
	}
	if err := xml.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
		t.Fatalf("unmarshal XML error: %v", err)
	}
	if parsed.Code != "AccessDenied" || parsed.RequestID != "req-123" {
		t.Fatalf("unexpected error body: %+v", parsed)
	}
}

func TestParseRoundTripsWrite(t *testing.T) {
	t.Parallel()
	w := httptest.NewRecorder()
	Write(w, "req-456", SignatureDoesNotMatch, "my-bucket/foo/bar.txt")

	parsed := Parse(w.Code, w.Body)
	if parsed.Code != "SignatureDoesNotMatch" {
		t.Fatalf("unexpected code: %s", parsed.Code)
	}
	if parsed.RequestID != "req-456" || parsed.Resource != "my-bucket/foo/bar.txt" {
		t.Fatalf("unexpected parsed error: %+v", parsed)
	}
	if parsed.StatusCode != 403 {
		t.Fatalf("unexpected status: %d", parsed.StatusCode)
	}
}

func TestParseToleratesNonXMLBody(t *testing.T) {
	t.Parallel()
	parsed := Parse(500, strings.NewReader("not xml at all"))
	if parsed.Code != "Internal Server Error" || parsed.StatusCode != 500 {
		t.Fatalf("unexpected fallback error: %+v", parsed)
	}
	parsed = Parse(403, nil)
	if parsed.Code != "Forbidden" {
		t.Fatalf("unexpected nil-body error: %+v", parsed)
	}
}

func TestMapErrorCanonicalMappings(t *testing.T) {
	t.Parallel()
	if got := MapError(AccessDenied); got.Code != "AccessDenied" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got := MapError(sigv4.ErrInvalidAccessKey); got.Code != "InvalidAccessKeyId" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got := MapError(sigv4.ErrClockSkew); got.Code != "RequestTimeTooSkewed" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got := MapError(sigv4.ErrSignatureMismatch); got.Code != "SignatureDoesNotMatch" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got := MapError(sigv4.ErrMalformedAuthorization); got.Code != "SignatureDoesNotMatch" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got := MapError(sigv4.ErrInvalidPayloadHash); got.Code != "InvalidRequest" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
	if got := MapError(errors.New("boom")); got.Code != "InternalError" {
		t.Fatalf("unexpected mapping: %+v", got)
	}
}
