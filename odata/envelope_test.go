package odata

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeCollection(t *testing.T) {
	items, err := DecodeCollection([]byte(`{"d":{"results":[{"ID":1},{"ID":2}]}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected two items, got %d", len(items))
	}
	if _, ok := items[0]["ID"].(json.Number); !ok {
		t.Fatalf("expected numbers to decode as json.Number, got %T", items[0]["ID"])
	}

	empty, err := DecodeCollection([]byte(`{"d":{"results":[]}}`))
	if err != nil || len(empty) != 0 || empty == nil {
		t.Fatalf("expected empty non-nil slice, got %#v %v", empty, err)
	}
}

func TestDecodeCollection_RejectsMalformedEnvelopes(t *testing.T) {
	cases := map[string][]byte{
		"not json":      []byte(`<html>`),
		"no envelope":   []byte(`{"value":[]}`),
		"null envelope": []byte(`{"d":null}`),
		"no results":    []byte(`{"d":{"ID":1}}`),
		"bad results":   []byte(`{"d":{"results":"nope"}}`),
	}
	for name, body := range cases {
		if _, err := DecodeCollection(body); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
	if _, err := DecodeCollection([]byte(`{"value":[]}`)); !errors.Is(err, ErrMissingEnvelope) {
		t.Fatalf("expected ErrMissingEnvelope, got %v", err)
	}
}

func TestDecodeEither(t *testing.T) {
	single, err := DecodeEither([]byte(`{"d":{"Id":3,"Title":"Ada","Email":"ada@example.test"}}`))
	if err != nil {
		t.Fatalf("decode entity: %v", err)
	}
	if len(single) != 1 || single[0].String("Title") != "Ada" {
		t.Fatalf("unexpected entity decode %#v", single)
	}

	many, err := DecodeEither([]byte(`{"d":{"results":[{"Id":3}]}}`))
	if err != nil || len(many) != 1 {
		t.Fatalf("unexpected collection decode %#v %v", many, err)
	}

	if _, err := DecodeEither([]byte(`{}`)); !errors.Is(err, ErrMissingEnvelope) {
		t.Fatalf("expected missing envelope error, got %v", err)
	}
}

func TestPayload(t *testing.T) {
	body, err := Payload(Item{"Title": "x"}.WithEntityType("T"))
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	meta := decoded["__metadata"].(map[string]any)
	if meta["type"] != "T" {
		t.Fatalf("expected entity type in payload, got %#v", meta)
	}
}
