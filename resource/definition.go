package resource

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-splist/odata"
)

const (
	DefaultItemsPath   = "items"
	DefaultSearchField = "Name"
	DefaultTop         = 20
)

// Definition describes one backend collection.
type Definition struct {
	Name        string
	BaseURL     string
	ItemsPath   string
	EntityType  string
	Query       odata.Query
	SearchField string
	DefaultTop  int
	// EchoCreated asks the backend to return the created record.
	EchoCreated bool
	Attachments bool
}

// ListDefinition addresses <base>_api/web/lists/GetByTitle('<title>')/.
func ListDefinition(name string, listsBaseURL string, title string, entityType string, query odata.Query) Definition {
	return Definition{
		Name:       name,
		BaseURL:    ensureSlash(listsBaseURL) + "_api/web/lists/GetByTitle(" + escapePathLiteral(odata.Literal(title)) + ")/",
		EntityType: entityType,
		Query:      query,
	}
}

// WebDefinition addresses <base>_api/web/, the parent of currentuser and
// siteusers.
func WebDefinition(name string, baseURL string, query odata.Query) Definition {
	return Definition{
		Name:    name,
		BaseURL: ensureSlash(baseURL) + "_api/web/",
		Query:   query,
	}
}

func (d Definition) normalized() Definition {
	d.Name = strings.TrimSpace(d.Name)
	d.BaseURL = ensureSlash(d.BaseURL)
	d.ItemsPath = strings.Trim(strings.TrimSpace(d.ItemsPath), "/")
	if d.ItemsPath == "" {
		d.ItemsPath = DefaultItemsPath
	}
	d.SearchField = strings.TrimSpace(d.SearchField)
	if d.SearchField == "" {
		d.SearchField = DefaultSearchField
	}
	if d.DefaultTop <= 0 {
		d.DefaultTop = DefaultTop
	}
	d.EntityType = strings.TrimSpace(d.EntityType)
	return d
}

func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("resource: name is required")
	}
	parsed, err := url.Parse(d.BaseURL)
	if err != nil {
		return fmt.Errorf("resource: %s base url is invalid: %w", d.Name, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("resource: %s base url must be absolute", d.Name)
	}
	return nil
}

func ensureSlash(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasSuffix(raw, "/") {
		return raw
	}
	return raw + "/"
}
