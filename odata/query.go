package odata

import (
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-splist/core"
)

const (
	ParamSelect = "$select"
	ParamExpand = "$expand"
	ParamFilter = "$filter"
	ParamTop    = "$top"
)

type Query struct {
	Fields []string `json:"fields"`
	Expand []string `json:"expand"`
	Filter string   `json:"filter"`
	Top    int      `json:"top"`
}

func (q Query) Validate() error {
	err := validation.ValidateStruct(&q,
		validation.Field(&q.Fields, validation.Required, validation.Each(validation.Required)),
		validation.Field(&q.Top, validation.Min(0)),
	)
	if err != nil {
		return core.NewBadInput("odata: invalid query: "+err.Error(), map[string]any{"query": q.Params()})
	}
	return nil
}

// WithFilter returns a copy of q using filter.
func (q Query) WithFilter(filter string) Query {
	q.Fields = append([]string(nil), q.Fields...)
	q.Expand = append([]string(nil), q.Expand...)
	q.Filter = strings.TrimSpace(filter)
	return q
}

func (q Query) WithTop(top int) Query {
	q.Fields = append([]string(nil), q.Fields...)
	q.Expand = append([]string(nil), q.Expand...)
	q.Top = top
	return q
}

// Params encodes q into query parameters, omitting empty parts.
func (q Query) Params() map[string]string {
	params := map[string]string{}
	if fields := joinNonEmpty(q.Fields); fields != "" {
		params[ParamSelect] = fields
	}
	if expand := joinNonEmpty(q.Expand); expand != "" {
		params[ParamExpand] = expand
	}
	if filter := strings.TrimSpace(q.Filter); filter != "" {
		params[ParamFilter] = filter
	}
	if q.Top > 0 {
		params[ParamTop] = strconv.Itoa(q.Top)
	}
	return params
}

func joinNonEmpty(values []string) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, ",")
}
