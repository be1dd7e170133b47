package inference

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sharathcherry/agentic-stock-analyzer/internal/models"
)

// ParseStructured parses a line-oriented "KEY: value" model response into a
// payload keyed by schema field name, validating every field against the
// schema. Missing required fields or unparseable values fail the whole
// response; numeric values are clamped into the field's declared range.
func ParseStructured(content string, schema models.Schema) (map[string]any, error) {
	raw := make(map[string]string)

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		if value == "" {
			continue
		}
		// First occurrence wins; models occasionally repeat keys in prose.
		if _, seen := raw[key]; !seen {
			raw[key] = value
		}
	}

	payload := make(map[string]any, len(schema.Fields))

	for _, field := range schema.Fields {
		value, ok := raw[strings.ToUpper(field.Name)]
		if !ok {
			if field.Required {
				return nil, fmt.Errorf("missing required field %q", field.Name)
			}
			continue
		}

		parsed, err := parseField(field, value)
		if err != nil {
			if field.Required {
				return nil, err
			}
			continue
		}
		payload[field.Name] = parsed
	}

	return payload, nil
}

func parseField(field models.Field, value string) (any, error) {
	switch field.Type {
	case models.FieldNumber:
		n, err := parseNumber(value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field.Name, err)
		}
		if field.Max > field.Min {
			if n < field.Min {
				n = field.Min
			}
			if n > field.Max {
				n = field.Max
			}
		}
		return n, nil

	case models.FieldEnum:
		v := strings.ToLower(strings.Trim(value, "[]"))
		for _, allowed := range field.Enum {
			if v == allowed {
				return v, nil
			}
		}
		return nil, fmt.Errorf("field %q: value %q not in %v", field.Name, v, field.Enum)

	case models.FieldBool:
		v := strings.ToLower(strings.Trim(value, "[]"))
		switch {
		case strings.HasPrefix(v, "yes") || strings.HasPrefix(v, "true"):
			return true, nil
		case strings.HasPrefix(v, "no") || strings.HasPrefix(v, "false"):
			return false, nil
		default:
			return nil, fmt.Errorf("field %q: value %q is not a yes/no answer", field.Name, v)
		}

	default:
		return value, nil
	}
}

// parseNumber extracts the first numeric token from a value, tolerating
// percent signs, brackets and trailing commentary.
func parseNumber(value string) (float64, error) {
	var token strings.Builder
	started := false

	for _, ch := range value {
		if (ch >= '0' && ch <= '9') || ch == '.' || (ch == '-' && !started) {
			token.WriteRune(ch)
			started = true
			continue
		}
		if started {
			break
		}
	}

	if token.Len() == 0 {
		return 0, fmt.Errorf("no numeric value in %q", value)
	}

	n, err := strconv.ParseFloat(token.String(), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", token.String())
	}
	return n, nil
}
