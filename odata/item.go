package odata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
)

const (
	FieldMetadata = "__metadata"
	FieldType     = "type"
	FieldID       = "ID"
)

// Item is an opaque list record as returned by the backend.
type Item map[string]any

func (i Item) IsEmpty() bool {
	return len(i) == 0
}

// ID returns the numeric item identity once the record is persisted.
func (i Item) ID() (int, bool) {
	raw, ok := i[FieldID]
	if !ok {
		raw, ok = i["Id"]
	}
	if !ok {
		return 0, false
	}
	return toInt(raw)
}

func (i Item) String(field string) string {
	switch value := i[field].(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// EntityType returns the __metadata.type tag, if present.
func (i Item) EntityType() string {
	meta, ok := i[FieldMetadata].(map[string]any)
	if !ok {
		return ""
	}
	value, _ := meta[FieldType].(string)
	return value
}

// WithEntityType returns a shallow copy tagged with entityType. Other
// metadata keys are preserved.
func (i Item) WithEntityType(entityType string) Item {
	out := make(Item, len(i)+1)
	for key, value := range i {
		out[key] = value
	}
	meta := map[string]any{}
	if existing, ok := i[FieldMetadata].(map[string]any); ok {
		for key, value := range existing {
			meta[key] = value
		}
	}
	meta[FieldType] = entityType
	out[FieldMetadata] = meta
	return out
}

// Decode copies the item into target, matching fields by mapstructure tag or
// case-insensitive name.
func (i Item) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "odata",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(map[string]any(i))
}

func DecodeItem[T any](item Item) (T, error) {
	var out T
	err := item.Decode(&out)
	return out, err
}

func toInt(raw any) (int, bool) {
	switch value := raw.(type) {
	case int:
		return value, true
	case int64:
		return int(value), true
	case float64:
		if value != math.Trunc(value) {
			return 0, false
		}
		return int(value), true
	case json.Number:
		parsed, err := value.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	case string:
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
