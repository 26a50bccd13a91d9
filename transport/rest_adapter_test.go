package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goliatone/go-splist/core"
)

func TestRESTAdapter_SendsOrderedHeadersQueryAndBody(t *testing.T) {
	var (
		gotMethod string
		gotQuery  url.Values
		gotHeader http.Header
		gotBody   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.Query()
		gotHeader = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("X-Trace", "abc")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"d":{}}`))
	}))
	defer server.Close()

	adapter := NewRESTAdapter(server.Client())
	adapter.DefaultHeaders = core.NewHeaders(core.Header{Name: "User-Agent", Value: "splist"})

	headers := core.ODataHeaders()
	headers.Set(core.HeaderRequestDigest, "digest-1")
	res, err := adapter.Do(context.Background(), core.TransportRequest{
		Method:  "post",
		URL:     server.URL + "/_api/web/lists/GetByTitle('Users')/items?keep=1",
		Headers: headers,
		Query:   map[string]string{"$filter": "substringof('A',Name) and Id eq 1", " ": "skip"},
		Body:    []byte(`{"Title":"x"}`),
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("expected POST, got %s", gotMethod)
	}
	if got := gotQuery["$filter"]; len(got) != 1 || got[0] != "substringof('A',Name) and Id eq 1" {
		t.Fatalf("unexpected $filter %v", got)
	}
	if gotQuery.Get("keep") != "1" {
		t.Fatalf("expected existing query to be preserved, got %v", gotQuery)
	}
	if gotHeader.Get(core.HeaderRequestDigest) != "digest-1" {
		t.Fatalf("expected digest header")
	}
	if gotHeader.Get("User-Agent") != "splist" {
		t.Fatalf("expected adapter default header")
	}
	if gotHeader.Get(core.HeaderAccept) != core.MediaTypeODataVerbose {
		t.Fatalf("expected accept header, got %q", gotHeader.Get(core.HeaderAccept))
	}
	if gotBody != `{"Title":"x"}` {
		t.Fatalf("unexpected body %q", gotBody)
	}
	if res.StatusCode != http.StatusCreated || !res.OK() {
		t.Fatalf("unexpected status %d", res.StatusCode)
	}
	if res.Headers["X-Trace"] != "abc" {
		t.Fatalf("expected flattened response headers, got %#v", res.Headers)
	}
}

func TestRESTAdapter_NonSuccessIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	res, err := NewRESTAdapter(server.Client()).Do(context.Background(), core.TransportRequest{URL: server.URL})
	if err != nil {
		t.Fatalf("expected status to be returned, got error %v", err)
	}
	if res.StatusCode != http.StatusNotFound || res.OK() {
		t.Fatalf("unexpected response %#v", res)
	}
}

func TestRESTAdapter_HonoursTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	adapter := NewRESTAdapter(server.Client())
	adapter.Timeout = 20 * time.Millisecond
	_, err := adapter.Do(context.Background(), core.TransportRequest{URL: server.URL})
	if !IsTransportFailure(err) {
		t.Fatalf("expected timeout to surface as transport failure, got %v", err)
	}
}
