package core

import (
	"net/http"
	"reflect"
	"testing"
)

func TestHeaders_SetIsCaseInsensitiveAndKeepsOrder(t *testing.T) {
	headers := ODataHeaders()
	headers.Set("authorization", "Bearer one")
	headers.Set("ACCEPT", "text/plain")

	if got := headers.Names(); !reflect.DeepEqual(got, []string{"Accept", "Content-Type", "authorization"}) {
		t.Fatalf("unexpected header order %v", got)
	}
	if headers.Get("Accept") != "text/plain" {
		t.Fatalf("expected accept to be replaced in place, got %q", headers.Get("Accept"))
	}
	if headers.Get("Authorization") != "Bearer one" {
		t.Fatalf("expected case-insensitive lookup")
	}
}

func TestHeaders_CloneIsIndependent(t *testing.T) {
	base := ODataHeaders()
	clone := base.Clone()
	clone.Set(HeaderRequestDigest, "digest")
	clone.Del(HeaderAccept)

	if base.Has(HeaderRequestDigest) {
		t.Fatalf("clone mutation leaked into base")
	}
	if !base.Has(HeaderAccept) {
		t.Fatalf("clone delete leaked into base")
	}
	if base.Len() != 2 {
		t.Fatalf("expected base to keep two headers, got %d", base.Len())
	}
}

func TestOverlay_RemovesSuppliedHeadersBeforeAdding(t *testing.T) {
	base := ODataHeaders()
	base.Set(HeaderAuthorization, "Bearer t")
	top := NewHeaders(
		Header{Name: "content-type", Value: MediaTypeOctetStream},
		Header{Name: HeaderRequestDigest, Value: "d1"},
	)

	merged := Overlay(base, top)
	if got := merged.Names(); !reflect.DeepEqual(got, []string{"Accept", HeaderAuthorization, "content-type", HeaderRequestDigest}) {
		t.Fatalf("unexpected overlay order %v", got)
	}
	if merged.Get(HeaderContentType) != MediaTypeOctetStream {
		t.Fatalf("expected operation content type to win")
	}
	if base.Get(HeaderContentType) != MediaTypeODataVerbose {
		t.Fatalf("overlay must not mutate base")
	}

	target := http.Header{}
	merged.Apply(target)
	if len(target.Values(HeaderContentType)) != 1 {
		t.Fatalf("expected exactly one content type, got %v", target.Values(HeaderContentType))
	}
}
