package aiflows

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var promptsYAML []byte

// Section is one named part of a prompt.
type Section struct {
	Name   string
	Text   string
	Append string
	Format string
}

type sectionDetail struct {
	Text   string `yaml:"text"`
	Append string `yaml:"append"`
	Format string `yaml:"format"`
}

// Sections is decoded from a sequence of single-key mappings whose value
// is a scalar (the text) or a sectionDetail mapping.
type Sections []Section

func (ss *Sections) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("sections must be a sequence, got %v", value.Kind)
	}
	out := make(Sections, 0, len(value.Content))
	for i, item := range value.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) < 2 {
			return fmt.Errorf("section %d: expected a single-key mapping", i)
		}
		sec := Section{Name: item.Content[0].Value}
		val := item.Content[1]
		switch val.Kind {
		case yaml.ScalarNode:
			sec.Text = val.Value
		case yaml.MappingNode:
			var d sectionDetail
			if err := val.Decode(&d); err != nil {
				return fmt.Errorf("section %q: %w", sec.Name, err)
			}
			sec.Text, sec.Append, sec.Format = d.Text, d.Append, d.Format
		default:
			return fmt.Errorf("section %q: unexpected node kind %v", sec.Name, val.Kind)
		}
		out = append(out, sec)
	}
	*ss = out
	return nil
}

// Prompt is one flow's template.
type Prompt struct {
	System   string   `yaml:"system"`
	JSON     bool     `yaml:"json"`
	Sections Sections `yaml:"sections"`
}

func parsePrompts(b []byte) (map[string]Prompt, error) {
	var out map[string]Prompt
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	return out, nil
}

// Render builds the prompt text. Placeholders are substituted in Text
// only, never in appended values. A section whose append value is empty
// is skipped.
func (p Prompt) Render(data map[string]string) string {
	var b strings.Builder
	for _, sec := range p.Sections {
		if sec.Append != "" && strings.TrimSpace(data[sec.Append]) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("# " + strings.ToUpper(strings.ReplaceAll(sec.Name, "_", " ")) + "\n\n")

		text := sec.Text
		for k, v := range data {
			text = strings.ReplaceAll(text, "{"+k+"}", v)
		}
		b.WriteString(strings.TrimRight(text, "\n"))
		b.WriteString("\n")

		if sec.Append != "" {
			val := data[sec.Append]
			if sec.Format == "yaml" {
				b.WriteString("```yaml\n" + strings.TrimRight(val, "\n") + "\n```\n")
			} else {
				b.WriteString(val + "\n")
			}
		}
	}
	return b.String()
}

// toYAML renders v for inclusion in a prompt.
func toYAML(v any) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
