package core

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const DefaultEnvPrefix = "SPLIST_"

type envBinding struct {
	name    string
	path    []string
	numeric bool
}

var envBindings = []envBinding{
	{name: "ENV", path: []string{"environment"}},
	{name: "APPLICATION", path: []string{"application"}},
	{name: "LISTS_BASE_URL", path: []string{"lists_base_url"}},
	{name: "USERS_BASE_URL", path: []string{"users_base_url"}},
	{name: "TOKEN_URL", path: []string{"token_url"}},
	{name: "SITE_BASE", path: []string{"site_base_url"}},
	{name: "DEV_USER_ID", path: []string{"dev_user_id"}, numeric: true},
	{name: "DIGEST_VALIDITY_MS", path: []string{"digest_validity_ms"}, numeric: true},
	{name: "REQUEST_TIMEOUT_MS", path: []string{"request_timeout_ms"}, numeric: true},
	{name: "ERRORS_LIST", path: []string{"lists", "errors", "title"}},
	{name: "ERRORS_ENTITY_TYPE", path: []string{"lists", "errors", "entity_type"}},
	{name: "USERS_LIST", path: []string{"lists", "users", "title"}},
	{name: "USERS_ENTITY_TYPE", path: []string{"lists", "users", "entity_type"}},
	{name: "CURRENT_LIST", path: []string{"lists", "current", "title"}},
	{name: "CURRENT_ENTITY_TYPE", path: []string{"lists", "current", "entity_type"}},
	{name: "ENTITIES_LIST", path: []string{"lists", "entities", "title"}},
	{name: "ENTITIES_ENTITY_TYPE", path: []string{"lists", "entities", "entity_type"}},
	{name: "JOURNAL_DRIVER", path: []string{"journal", "driver"}},
	{name: "JOURNAL_DSN", path: []string{"journal", "dsn"}},
	{name: "JOURNAL_RETENTION_MS", path: []string{"journal", "retention_ms"}, numeric: true},
	{name: "JOURNAL_MAX_ROWS", path: []string{"journal", "max_rows"}, numeric: true},
}

// EnvConfigLoader reads prefixed environment variables into the raw config
// shape understood by CfgxConfigProvider.
type EnvConfigLoader struct {
	Prefix string
	Lookup func(key string) (string, bool)
}

func NewEnvConfigLoader() EnvConfigLoader {
	return EnvConfigLoader{Prefix: DefaultEnvPrefix, Lookup: os.LookupEnv}
}

func (l EnvConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	prefix := l.Prefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	lookup := l.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	raw := map[string]any{}
	for _, binding := range envBindings {
		key := prefix + binding.name
		value, ok := lookup(key)
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		var typed any = value
		if binding.numeric {
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("core: %s must be an integer: %w", key, err)
			}
			typed = parsed
		}
		setPath(raw, binding.path, typed)
	}
	return raw, nil
}

func setPath(target map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := target[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			target[key] = next
		}
		target = next
	}
	target[path[len(path)-1]] = value
}
