package resource

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-splist/odata"
)

// resolve joins rel onto the definition base URL as a relative reference.
func (c *Client) resolve(rel string) (string, error) {
	base, err := url.Parse(c.def.BaseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(rel)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func (c *Client) itemsPath() string {
	return c.def.ItemsPath
}

func (c *Client) itemPath(id int) string {
	return c.def.ItemsPath + "(" + strconv.Itoa(id) + ")"
}

func (c *Client) attachmentAddPath(id int, filename string) string {
	return c.itemPath(id) + "/AttachmentFiles/add(FileName=" + escapePathLiteral(odata.Literal(filename)) + ")"
}

func (c *Client) attachmentPath(id int, filename string) string {
	return c.itemPath(id) + "/AttachmentFiles/getByFileName(" + escapePathLiteral(odata.Literal(filename)) + ")"
}

// escapePathLiteral percent-encodes everything outside the RFC 3986 pchar set.
func escapePathLiteral(value string) string {
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isPathChar(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isPathChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=', ':', '@':
		return true
	}
	return false
}
