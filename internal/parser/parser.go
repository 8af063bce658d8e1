// Package parser extracts frontmatter metadata and wikilinks from Markdown content.
package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/meshgraph/internal/models"
)

const delim = "---"

// Result holds the output of parsing a Markdown file.
type Result struct {
	Metadata models.Metadata
	Links    []models.ParsedLink
	Body     string
}

// Parse extracts frontmatter metadata, body, and wikilinks from raw Markdown
// bytes. Malformed input never fails: a missing or invalid frontmatter block
// yields empty metadata.
func Parse(data []byte) *Result {
	block, body, ok := splitFrontmatter(data)
	meta := models.Metadata{}
	if ok {
		meta = parseMetadata(block)
	}
	return &Result{
		Metadata: meta,
		Links:    ExtractLinks(body),
		Body:     body,
	}
}

// splitFrontmatter separates the YAML block (between leading --- delimiters)
// from the Markdown body. If no closed block is found the entire content is body.
func splitFrontmatter(data []byte) ([]byte, string, bool) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}

	block := bytes.TrimSpace(rest[:idx])
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n")
	return block, body, true
}

// parseMetadata decodes a frontmatter block into string values. Only string
// keys are kept; scalars become one value, sequences are flattened, nulls and
// nested mappings are dropped. Keys with no remaining values are omitted.
func parseMetadata(block []byte) models.Metadata {
	meta := models.Metadata{}

	var doc yaml.Node
	if err := yaml.Unmarshal(block, &doc); err != nil {
		return meta
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return meta
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return meta
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode || key.ShortTag() != "!!str" {
			continue
		}
		values := nodeStrings(val)
		if len(values) == 0 {
			continue
		}
		meta[key.Value] = values
	}
	return meta
}

func nodeStrings(n *yaml.Node) []string {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil
		}
		return nodeStrings(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return []string{n.Value}
			}
			if b {
				return []string{"true"}
			}
			return []string{"false"}
		}
		return []string{n.Value}
	case yaml.SequenceNode:
		var out []string
		for _, item := range n.Content {
			out = append(out, nodeStrings(item)...)
		}
		return out
	}
	return nil
}

// ExtractLinks returns the wikilinks in body in order of first appearance,
// deduplicated by target. [[Target|Display]] carries display text; an empty
// target is not a link.
func ExtractLinks(body string) []models.ParsedLink {
	var out []models.ParsedLink
	seen := make(map[string]struct{})

	for i := 0; i+1 < len(body); {
		if body[i] != '[' || body[i+1] != '[' {
			i++
			continue
		}
		start := i + 2
		end := strings.Index(body[start:], "]]")
		if end < 0 {
			break
		}
		inner := body[start : start+end]
		i = start + end + 2

		link, ok := parseLink(inner)
		if !ok {
			continue
		}
		if _, dup := seen[link.Target]; dup {
			continue
		}
		seen[link.Target] = struct{}{}
		out = append(out, link)
	}
	return out
}

func parseLink(inner string) (models.ParsedLink, bool) {
	target, display, hasDisplay := strings.Cut(inner, "|")
	target = strings.TrimSpace(target)
	if target == "" {
		return models.ParsedLink{}, false
	}
	link := models.ParsedLink{Target: target}
	if hasDisplay {
		d := strings.TrimSpace(display)
		link.DisplayText = &d
	}
	return link, true
}
