// Package ruleset reads production rules from an XML rule file and
// compiles them into rete.Rule values. It is not part of the matching
// core: the core spec treats rule-source parsing as an external
// collaborator's job. This package is the concrete reader cmd/retenet
// uses to do that job, grounded directly in the original naive-rete
// reference parser (parse_xml/parsing) rather than invented from
// scratch.
package ruleset

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"retenet/internal/rete"
)

// Production is one compiled rule read from a rule file: its left-hand
// side conditions plus the opaque right-hand-side attribute map, carried
// through unchanged for the caller's own conflict-resolution/agenda
// logic.
type Production struct {
	Name string
	LHS  rete.Rule
	RHS  map[string]string
}

// Parse reads a rule file's contents (a <rules> root of <production>
// elements) and returns its compiled productions in document order.
func Parse(content []byte) ([]Production, error) {
	dec := xml.NewDecoder(bytes.NewReader(content))
	var productions []Production
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("ruleset: parse: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "production" {
			continue
		}
		p, err := decodeProduction(dec, start)
		if err != nil {
			return nil, err
		}
		productions = append(productions, p)
	}
	return productions, nil
}

func decodeProduction(dec *xml.Decoder, start xml.StartElement) (Production, error) {
	p := Production{Name: attrValue(start, "name"), RHS: map[string]string{}}
	for {
		tok, err := dec.Token()
		if err != nil {
			return Production{}, fmt.Errorf("ruleset: production %q: %w", p.Name, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "lhs":
				conds, err := decodeConditions(dec, t)
				if err != nil {
					return Production{}, fmt.Errorf("ruleset: production %q: %w", p.Name, err)
				}
				p.LHS = conds
			case "rhs":
				for _, a := range t.Attr {
					p.RHS[a.Name.Local] = a.Value
				}
				if err := dec.Skip(); err != nil {
					return Production{}, err
				}
			default:
				if err := dec.Skip(); err != nil {
					return Production{}, err
				}
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return p, nil
			}
		}
	}
}

// decodeConditions reads the children of an <lhs> or <ncc> element in
// document order, compiling each into a rete.Condition.
func decodeConditions(dec *xml.Decoder, start xml.StartElement) (rete.Rule, error) {
	var rule rete.Rule
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("ruleset: decode <%s>: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			cond, err := decodeCondition(dec, t)
			if err != nil {
				return nil, err
			}
			if cond != nil {
				rule = append(rule, cond)
			}
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return rule, nil
			}
		}
	}
}

func decodeCondition(dec *xml.Decoder, start xml.StartElement) (rete.Condition, error) {
	switch start.Name.Local {
	case "has":
		id, attr, val := tripleAttrs(start)
		if err := dec.Skip(); err != nil {
			return nil, err
		}
		return rete.NewHas(id, attr, val), nil
	case "neg":
		id, attr, val := tripleAttrs(start)
		if err := dec.Skip(); err != nil {
			return nil, err
		}
		return rete.NewNeg(id, attr, val), nil
	case "filter":
		text, err := decodeText(dec, start)
		if err != nil {
			return nil, err
		}
		return rete.NewFilter(text), nil
	case "bind":
		to := attrValue(start, "to")
		text, err := decodeText(dec, start)
		if err != nil {
			return nil, err
		}
		return rete.NewBind(text, to), nil
	case "ncc":
		conds, err := decodeConditions(dec, start)
		if err != nil {
			return nil, err
		}
		return rete.Ncc{Conditions: conds}, nil
	default:
		return nil, dec.Skip()
	}
}

func decodeText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("ruleset: decode text of <%s>: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return strings.TrimSpace(sb.String()), nil
			}
		}
	}
}

func tripleAttrs(start xml.StartElement) (identifier, attribute, value string) {
	for _, a := range start.Attr {
		switch a.Name.Local {
		case "identifier":
			identifier = a.Value
		case "attribute":
			attribute = a.Value
		case "value":
			value = a.Value
		}
	}
	return
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
