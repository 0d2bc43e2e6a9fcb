package config

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

// ParseError represents a config parsing error with a friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// ParseFile parses the Lua config at the given path.
// A missing file is reported as ErrConfigMissing so callers can
// distinguish "never configured" from a broken config.
func ParseFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigMissing, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses a Lua config from a string.
// This is useful for testing and in-memory config generation.
func ParseString(luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()

	if err := L.DoString(luaCode); err != nil {
		return nil, &ParseError{
			Message: "Lua syntax error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// extractConfig extracts the config from a Lua state.
// It expects a global "uha" table with the config structure.
func extractConfig(L *lua.LState) (*Config, error) {
	uhaTable := L.GetGlobal(luaGlobalUHA)
	if uhaTable.Type() != lua.LTTable {
		return nil, &ParseError{
			Message: fmt.Sprintf("missing or invalid '%s' table", luaGlobalUHA),
			Detail:  fmt.Sprintf("expected table, got %s", uhaTable.Type()),
		}
	}

	cfg := &Config{}
	table := uhaTable.(*lua.LTable)

	if projVal := table.RawGetString(luaFieldProject); projVal.Type() == lua.LTTable {
		proj := projVal.(*lua.LTable)
		cfg.Project.Name = optString(proj, luaFieldName)
		cfg.Project.Patent = optString(proj, luaFieldPatent)
	}

	if buildVal := table.RawGetString(luaFieldBuild); buildVal.Type() == lua.LTTable {
		build := buildVal.(*lua.LTable)
		platforms, err := stringList(build, luaFieldPlatforms)
		if err != nil {
			return nil, err
		}
		pythons, err := stringList(build, luaFieldPythons)
		if err != nil {
			return nil, err
		}
		cfg.Build.Platforms = platforms
		cfg.Build.PythonVersions = pythons
		cfg.Build.BackendDir = optString(build, luaFieldBackendDir)
	}

	if pubVal := table.RawGetString(luaFieldPublish); pubVal.Type() == lua.LTTable {
		pub := pubVal.(*lua.LTable)
		cfg.Publish.StoreDir = optString(pub, luaFieldStoreDir)
		cfg.Publish.Remote = optString(pub, luaFieldRemote)
		cfg.Publish.Branch = optString(pub, luaFieldBranch)
	}

	if regVal := table.RawGetString(luaFieldRegistry); regVal.Type() == lua.LTTable {
		reg := regVal.(*lua.LTable)
		cfg.Registry.BaseURL = optString(reg, luaFieldBaseURL)
	}

	if paramsVal := table.RawGetString(luaFieldParameters); paramsVal.Type() == lua.LTTable {
		params, err := tableToMap(paramsVal.(*lua.LTable))
		if err != nil {
			return nil, err
		}
		cfg.Parameters = params
	}

	cfg.applyDefaults()
	return cfg, nil
}

// optString reads an optional string field from a Lua table.
func optString(table *lua.LTable, field string) string {
	val := table.RawGetString(field)
	if val.Type() != lua.LTString {
		return ""
	}
	return string(val.(lua.LString))
}

// stringList reads an optional array-of-strings field from a Lua table.
// Non-string elements are a parse error, not silently dropped.
func stringList(table *lua.LTable, field string) ([]string, error) {
	val := table.RawGetString(field)
	if val.Type() != lua.LTTable {
		return nil, nil
	}

	var out []string
	var elemErr error
	val.(*lua.LTable).ForEach(func(_, v lua.LValue) {
		if elemErr != nil {
			return
		}
		if v.Type() != lua.LTString {
			elemErr = &ParseError{
				Message: fmt.Sprintf("invalid entry in '%s'", field),
				Detail:  fmt.Sprintf("expected string, got %s", v.Type()),
			}
			return
		}
		out = append(out, string(v.(lua.LString)))
	})
	if elemErr != nil {
		return nil, elemErr
	}
	return out, nil
}

// tableToMap converts a Lua table into a JSON-compatible map.
// Sequential integer-keyed tables become slices; everything else
// becomes string-keyed maps. Used for the free-form parameters block.
func tableToMap(table *lua.LTable) (map[string]interface{}, error) {
	v, err := luaToGo(table)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, &ParseError{
			Message: fmt.Sprintf("invalid '%s' table", luaFieldParameters),
			Detail:  "expected key-value table, got array",
		}
	}
	return m, nil
}

// luaToGo converts a Lua value to its JSON-compatible Go equivalent.
func luaToGo(val lua.LValue) (interface{}, error) {
	switch val.Type() {
	case lua.LTNil:
		return nil, nil
	case lua.LTBool:
		return bool(val.(lua.LBool)), nil
	case lua.LTNumber:
		return float64(val.(lua.LNumber)), nil
	case lua.LTString:
		return string(val.(lua.LString)), nil
	case lua.LTTable:
		table := val.(*lua.LTable)
		// A table with sequential keys 1..n is an array.
		if n := table.Len(); n > 0 {
			arr := make([]interface{}, 0, n)
			var convErr error
			for i := 1; i <= n; i++ {
				elem, err := luaToGo(table.RawGetInt(i))
				if err != nil {
					convErr = err
					break
				}
				arr = append(arr, elem)
			}
			if convErr != nil {
				return nil, convErr
			}
			return arr, nil
		}
		m := make(map[string]interface{})
		var convErr error
		table.ForEach(func(k, v lua.LValue) {
			if convErr != nil {
				return
			}
			if k.Type() != lua.LTString {
				convErr = &ParseError{
					Message: "invalid table key in parameters",
					Detail:  fmt.Sprintf("expected string key, got %s", k.Type()),
				}
				return
			}
			elem, err := luaToGo(v)
			if err != nil {
				convErr = err
				return
			}
			m[string(k.(lua.LString))] = elem
		})
		if convErr != nil {
			return nil, convErr
		}
		return m, nil
	default:
		return nil, &ParseError{
			Message: "unsupported value in parameters",
			Detail:  fmt.Sprintf("cannot convert %s", val.Type()),
		}
	}
}
