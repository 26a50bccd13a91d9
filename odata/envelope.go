package odata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMissingEnvelope = errors.New("odata: response has no d envelope")
	ErrNotCollection   = errors.New("odata: d envelope has no results array")
)

type envelope struct {
	D json.RawMessage `json:"d"`
}

type collection struct {
	Results []Item `json:"results"`
}

func decodeJSON(body []byte, target any) error {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	return decoder.Decode(target)
}

func unwrap(body []byte) (json.RawMessage, error) {
	var env envelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("odata: decode envelope: %w", err)
	}
	if len(env.D) == 0 || bytes.Equal(env.D, []byte("null")) {
		return nil, ErrMissingEnvelope
	}
	return env.D, nil
}

// DecodeCollection reads {"d":{"results":[...]}}.
func DecodeCollection(body []byte) ([]Item, error) {
	raw, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	var probe map[string]json.RawMessage
	if err := decodeJSON(raw, &probe); err != nil {
		return nil, fmt.Errorf("odata: decode d: %w", err)
	}
	if _, ok := probe["results"]; !ok {
		return nil, ErrNotCollection
	}
	var out collection
	if err := decodeJSON(raw, &out); err != nil {
		return nil, fmt.Errorf("odata: decode results: %w", err)
	}
	if out.Results == nil {
		return []Item{}, nil
	}
	return out.Results, nil
}

// DecodeEntity reads {"d":{...}}.
func DecodeEntity(body []byte) (Item, error) {
	raw, err := unwrap(body)
	if err != nil {
		return nil, err
	}
	var item Item
	if err := decodeJSON(raw, &item); err != nil {
		return nil, fmt.Errorf("odata: decode entity: %w", err)
	}
	return item, nil
}

// DecodeEither accepts both entity and collection envelopes.
func DecodeEither(body []byte) ([]Item, error) {
	items, err := DecodeCollection(body)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, ErrNotCollection) {
		return nil, err
	}
	item, err := DecodeEntity(body)
	if err != nil {
		return nil, err
	}
	return []Item{item}, nil
}

// Payload encodes an item as a request body.
func Payload(item Item) ([]byte, error) {
	if item == nil {
		item = Item{}
	}
	return json.Marshal(map[string]any(item))
}
