package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const frontMatterDelimiter = "---"

const (
	titleKey          = "title"
	aliasesKey        = "aliases"
	createTimeKey     = "create_time"
	conversationIDKey = "conversation_id"
)

var titleMarker = regexp.MustCompile(`(?m)^# Title: (.+)$`)

// Document is a transient view of a corpus file taken at load time.
type Document struct {
	Path       string
	Title      string
	Metadata   Metadata
	Body       string
	Size       int64
	ModifiedAt time.Time
	// MetadataErr records a front-matter block that failed to parse. The
	// document is still usable with empty metadata.
	MetadataErr error `json:"-"`
}

// LoadDocument reads path and splits it into metadata and body.
//
// The returned Document is always usable. When the file cannot be read a
// degraded document (filename title, empty metadata and body, zero size,
// current time) is returned together with the error.
func LoadDocument(path string) (Document, error) {
	cleaned := filepath.Clean(path)

	info, err := os.Stat(cleaned)
	if err != nil {
		return degradedDocument(cleaned), err
	}
	if info.IsDir() {
		return degradedDocument(cleaned), fmt.Errorf("%s: is a directory", cleaned)
	}

	data, err := os.ReadFile(cleaned)
	if err != nil {
		return degradedDocument(cleaned), err
	}

	meta, body, metaErr := splitFrontMatter(decodeText(data))
	return Document{
		Path:        cleaned,
		Title:       deriveTitle(meta, body, cleaned),
		Metadata:    meta,
		Body:        body,
		Size:        info.Size(),
		ModifiedAt:  info.ModTime(),
		MetadataErr: metaErr,
	}, nil
}

func degradedDocument(path string) Document {
	return Document{
		Path:       path,
		Title:      fileStem(path),
		ModifiedAt: time.Now(),
	}
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	return strings.ToValidUTF8(string(data), "\uFFFD")
}

// splitFrontMatter splits content on the delimiter into at most three parts.
// Only when a closing delimiter exists is the middle part treated as YAML.
func splitFrontMatter(content string) (Metadata, string, error) {
	if !strings.HasPrefix(content, frontMatterDelimiter) {
		return Metadata{}, content, nil
	}

	parts := strings.SplitN(content, frontMatterDelimiter, 3)
	if len(parts) < 3 {
		return Metadata{}, content, nil
	}

	body := strings.TrimSpace(parts[2])
	meta, err := parseFrontMatter(strings.TrimSpace(parts[1]))
	if err != nil {
		return Metadata{}, body, fmt.Errorf("parse front matter: %w", err)
	}
	return meta, body, nil
}

func parseFrontMatter(fm string) (Metadata, error) {
	if fm == "" {
		return Metadata{}, nil
	}

	var data yaml.Node
	if err := yaml.Unmarshal([]byte(fm), &data); err != nil {
		return Metadata{}, err
	}

	if data.Kind != yaml.DocumentNode || len(data.Content) == 0 {
		return Metadata{}, nil
	}

	mapping := data.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return Metadata{}, nil
	}

	meta := Metadata{}
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valueNode := mapping.Content[i+1]

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return Metadata{}, fmt.Errorf("key %q: %w", keyNode.Value, err)
		}
		meta.set(keyNode.Value, value, nodeText(valueNode))
	}
	return meta, nil
}

// nodeText returns the verbatim text of scalar nodes and the first non-empty
// scalar of sequences.
func nodeText(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return ""
		}
		return node.Value
	case yaml.SequenceNode:
		for _, child := range node.Content {
			if text := strings.TrimSpace(nodeText(child)); text != "" {
				return text
			}
		}
	case yaml.AliasNode:
		if node.Alias != nil {
			return nodeText(node.Alias)
		}
	}
	return ""
}

func deriveTitle(meta Metadata, body, path string) string {
	if title := strings.TrimSpace(meta.Text(titleKey)); title != "" {
		return title
	}
	if alias := strings.TrimSpace(meta.Text(aliasesKey)); alias != "" {
		return alias
	}
	if match := titleMarker.FindStringSubmatch(body); len(match) > 1 {
		if title := strings.TrimSpace(match[1]); title != "" {
			return title
		}
	}
	return fileStem(path)
}

// Metadata is an insertion-ordered mapping decoded from front matter.
type Metadata struct {
	keys   []string
	values map[string]any
	text   map[string]string
}

func (m *Metadata) set(key string, value any, text string) {
	if m.values == nil {
		m.values = make(map[string]any)
		m.text = make(map[string]string)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	m.text[key] = text
}

// Len returns the number of keys.
func (m Metadata) Len() int {
	return len(m.keys)
}

// Keys returns the keys in document order.
func (m Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Get returns the decoded value stored under key.
func (m Metadata) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Text returns the verbatim scalar text stored under key, or "" when the key
// is missing or holds a structured value.
func (m Metadata) Text(key string) string {
	return m.text[key]
}

// Map returns a shallow copy of the values.
func (m Metadata) Map() map[string]any {
	out := make(map[string]any, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the mapping as an object preserving key order.
func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(jsonSafe(m.values[key]))
		if err != nil {
			return nil, fmt.Errorf("metadata %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonSafe converts YAML mappings with non-string keys into string-keyed maps.
func jsonSafe(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonSafe(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = jsonSafe(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonSafe(item)
		}
		return out
	default:
		return v
	}
}
