package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// inputFile is the document every command reads.
type inputFile struct {
	Forms []inputForm `yaml:"forms"`
}

type inputForm struct {
	ID       string    `yaml:"id"`
	FormType string    `yaml:"formType"`
	TaxYear  int       `yaml:"taxYear"`
	Data     yaml.Node `yaml:"data"`
}

// form is one decoded input record.
type form struct {
	ID       string
	FormType string
	TaxYear  int
	Data     map[string]any
}

// readForms loads path. JSON parses as YAML, so one decoder serves both.
func readForms(path string) ([]form, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var in inputFile
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(in.Forms) == 0 {
		return nil, fmt.Errorf("%s: no forms found (expected a top-level \"forms\" list)", path)
	}

	forms := make([]form, len(in.Forms))
	for i, f := range in.Forms {
		id := f.ID
		if id == "" {
			id = "form-" + strconv.Itoa(i+1)
		}

		data := map[string]any{}
		if f.Data.Kind != 0 {
			m, ok := nodeValue(&f.Data).(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: form %s: data must be a mapping", path, id)
			}
			data = m
		}

		forms[i] = form{ID: id, FormType: f.FormType, TaxYear: f.TaxYear, Data: data}
	}
	return forms, nil
}

// nodeValue converts a YAML node to plain Go values. Numeric scalars
// become json.Number so amounts keep their exact digits.
func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, len(n.Content))
		for i, c := range n.Content {
			s[i] = nodeValue(c)
		}
		return s
	}

	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		b, _ := strconv.ParseBool(n.Value)
		return b
	case "!!int", "!!float":
		return json.Number(n.Value)
	default:
		return n.Value
	}
}
