package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRegistry reads a template registry file. Keys keep their case, which
// is why this does not go through viper.
func LoadRegistry(path string) (*TemplateRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*TemplateRegistry, error) {
	var reg TemplateRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse template registry: %w", err)
	}
	return &reg, nil
}

// Keys flattens the template tree into dotted keys.
func (r *TemplateRegistry) Keys() map[string]string {
	out := make(map[string]string)
	flatten("", r.Templates, out)
	return out
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case nil:
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// SortedKeys returns the flattened keys in lexical order.
func (r *TemplateRegistry) SortedKeys() []string {
	keys := r.Keys()
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate lists the problems that would break resolution or delivery.
// SMS ids need a body because SNS has no stored templates.
func (r *TemplateRegistry) Validate() []string {
	var problems []string
	if r.Version == "" {
		problems = append(problems, "version is required")
	}
	keys := r.Keys()
	for _, key := range r.SortedKeys() {
		id := keys[key]
		if strings.TrimSpace(id) == "" {
			problems = append(problems, fmt.Sprintf("%s: empty template id", key))
			continue
		}
		if strings.HasSuffix(key, ".smsId") {
			if _, ok := r.Bodies[id]; !ok {
				problems = append(problems, fmt.Sprintf("%s: no body for sms template %s", key, id))
			}
		}
	}
	for event, path := range r.Coversheets {
		if strings.TrimSpace(path) == "" {
			problems = append(problems, fmt.Sprintf("coversheets.%s: empty path", event))
		}
	}
	sort.Strings(problems)
	return problems
}
