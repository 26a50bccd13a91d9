package core

import (
	"net/http"
	"strings"
)

const (
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderRequestDigest = "X-RequestDigest"
	HeaderHTTPMethod    = "X-HTTP-Method"
	HeaderIfMatch       = "IF-MATCH"
	HeaderPrefer        = "Prefer"
)

const (
	MediaTypeODataVerbose = "application/json;odata=verbose"
	MediaTypeOctetStream  = "application/octet-stream"
)

type Header struct {
	Name  string
	Value string
}

// Headers is an insertion-ordered header set with case-insensitive names.
type Headers struct {
	entries []Header
}

func NewHeaders(entries ...Header) Headers {
	var headers Headers
	for _, entry := range entries {
		headers.Set(entry.Name, entry.Value)
	}
	return headers
}

// ODataHeaders returns the base header pair every request starts from.
func ODataHeaders() Headers {
	return NewHeaders(
		Header{Name: HeaderAccept, Value: MediaTypeODataVerbose},
		Header{Name: HeaderContentType, Value: MediaTypeODataVerbose},
	)
}

// Set replaces the value of an existing header in place or appends it.
func (h *Headers) Set(name string, value string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if idx := h.index(name); idx >= 0 {
		h.entries[idx].Value = value
		return
	}
	h.entries = append(h.entries, Header{Name: name, Value: value})
}

func (h Headers) Get(name string) string {
	if idx := h.index(name); idx >= 0 {
		return h.entries[idx].Value
	}
	return ""
}

func (h Headers) Has(name string) bool {
	return h.index(name) >= 0
}

func (h *Headers) Del(name string) {
	idx := h.index(name)
	if idx < 0 {
		return
	}
	h.entries = append(h.entries[:idx:idx], h.entries[idx+1:]...)
}

func (h Headers) Len() int {
	return len(h.entries)
}

func (h Headers) Clone() Headers {
	if len(h.entries) == 0 {
		return Headers{}
	}
	return Headers{entries: append([]Header(nil), h.entries...)}
}

func (h Headers) Entries() []Header {
	return append([]Header(nil), h.entries...)
}

func (h Headers) Names() []string {
	names := make([]string, 0, len(h.entries))
	for _, entry := range h.entries {
		names = append(names, entry.Name)
	}
	return names
}

// Overlay returns base with every header of top removed and then re-added in
// top's order.
func Overlay(base Headers, top Headers) Headers {
	out := base.Clone()
	for _, entry := range top.entries {
		out.Del(entry.Name)
	}
	for _, entry := range top.entries {
		out.Set(entry.Name, entry.Value)
	}
	return out
}

func (h Headers) Map() map[string]string {
	out := make(map[string]string, len(h.entries))
	for _, entry := range h.entries {
		out[entry.Name] = entry.Value
	}
	return out
}

func (h Headers) Apply(target http.Header) {
	for _, entry := range h.entries {
		target.Set(entry.Name, entry.Value)
	}
}

func (h Headers) index(name string) int {
	name = strings.TrimSpace(name)
	for idx, entry := range h.entries {
		if strings.EqualFold(entry.Name, name) {
			return idx
		}
	}
	return -1
}
