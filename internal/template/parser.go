package template

import (
	"fmt"
	"strings"
)

// nodeKind discriminates the small AST Parse produces.
type nodeKind int

const (
	nodeText nodeKind = iota
	nodeExpr
	nodeIf
	nodeFor
	nodeAssign
)

// node is one parsed template construct. Fields are reused across kinds
// the way a small hand-rolled AST typically does: see the comment above
// each field for which kind(s) populate it.
type node struct {
	kind nodeKind

	text string // nodeText

	expr    string   // nodeExpr: the expression; nodeFor: the iterable expression
	filters []string // nodeExpr: filter names applied left to right

	assignName string // nodeAssign
	assignExpr string // nodeAssign

	loopVar string // nodeFor
	body    []node // nodeFor: loop body

	branches []ifBranch // nodeIf
}

// ifBranch is one `if`/`elif`/`else` arm; cond == "" marks the else arm.
type ifBranch struct {
	cond string
	body []node
}

// Parse lexes and parses a full template into its AST.
func Parse(src string) ([]node, error) {
	tokens, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	nodes, pos, term, err := parseBlock(tokens, 0, nil)
	if err != nil {
		return nil, err
	}
	if term != tokEOF {
		return nil, fmt.Errorf("template: unexpected tag at token %d", pos)
	}
	return nodes, nil
}

// parseBlock consumes tokens until it hits a token whose kind is in
// terminators (not consumed) or runs out of tokens (tokEOF). It returns
// the nodes collected, the position of the terminator (or len(tokens)),
// and which terminator kind was found.
func parseBlock(tokens []token, pos int, terminators map[tokenKind]bool) ([]node, int, tokenKind, error) {
	var nodes []node

	for pos < len(tokens) {
		tok := tokens[pos]
		if terminators[tok.kind] {
			return nodes, pos, tok.kind, nil
		}

		switch tok.kind {
		case tokText:
			nodes = append(nodes, node{kind: nodeText, text: tok.raw})
			pos++

		case tokExpr:
			expr, filters := splitFilters(tok.raw)
			nodes = append(nodes, node{kind: nodeExpr, expr: expr, filters: filters})
			pos++

		case tokAssign:
			name, expr, err := parseAssignSpec(tok.raw)
			if err != nil {
				return nil, 0, tokEOF, err
			}
			nodes = append(nodes, node{kind: nodeAssign, assignName: name, assignExpr: expr})
			pos++

		case tokFor:
			loopVar, iterExpr, err := parseForSpec(tok.raw)
			if err != nil {
				return nil, 0, tokEOF, err
			}
			body, next, term, err := parseBlock(tokens, pos+1, map[tokenKind]bool{tokEndFor: true})
			if err != nil {
				return nil, 0, tokEOF, err
			}
			if term != tokEndFor {
				return nil, 0, tokEOF, fmt.Errorf("template: unterminated {%% for %%} loop")
			}
			pos = next + 1
			nodes = append(nodes, node{kind: nodeFor, loopVar: loopVar, expr: iterExpr, body: body})

		case tokIf:
			cond := tok.raw
			pos++
			var branches []ifBranch
		ifLoop:
			for {
				body, next, term, err := parseBlock(tokens, pos, map[tokenKind]bool{tokElif: true, tokElse: true, tokEndIf: true})
				if err != nil {
					return nil, 0, tokEOF, err
				}
				branches = append(branches, ifBranch{cond: cond, body: body})
				pos = next
				if pos >= len(tokens) {
					return nil, 0, tokEOF, fmt.Errorf("template: unterminated {%% if %%}")
				}
				switch term {
				case tokEndIf:
					pos++
					break ifLoop
				case tokElif:
					cond = tokens[pos].raw
					pos++
				case tokElse:
					cond = ""
					pos++
				}
			}
			nodes = append(nodes, node{kind: nodeIf, branches: branches})

		default:
			return nil, 0, tokEOF, fmt.Errorf("template: unexpected tag")
		}
	}

	return nodes, pos, tokEOF, nil
}

// splitFilters splits a `{{ }}` body on its `|` pipeline into the leading
// expression and the ordered filter names after it. Visor's filter set is
// fixed-arity (§4.2), so filters never take their own arguments here.
func splitFilters(raw string) (string, []string) {
	parts := strings.Split(raw, "|")
	expr := strings.TrimSpace(parts[0])
	if len(parts) == 1 {
		return expr, nil
	}
	filters := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		if name := strings.TrimSpace(p); name != "" {
			filters = append(filters, name)
		}
	}
	return expr, filters
}

func parseForSpec(spec string) (loopVar, iterExpr string, err error) {
	idx := strings.Index(spec, " in ")
	if idx < 0 {
		return "", "", fmt.Errorf("template: malformed for loop %q, want \"x in expr\"", spec)
	}
	loopVar = strings.TrimSpace(spec[:idx])
	iterExpr = strings.TrimSpace(spec[idx+len(" in "):])
	if loopVar == "" || iterExpr == "" {
		return "", "", fmt.Errorf("template: malformed for loop %q", spec)
	}
	return loopVar, iterExpr, nil
}

func parseAssignSpec(spec string) (name, expr string, err error) {
	idx := strings.Index(spec, "=")
	if idx < 0 {
		return "", "", fmt.Errorf("template: malformed assign %q, want \"x = expr\"", spec)
	}
	name = strings.TrimSpace(spec[:idx])
	expr = strings.TrimSpace(spec[idx+1:])
	if name == "" || expr == "" {
		return "", "", fmt.Errorf("template: malformed assign %q", spec)
	}
	return name, expr, nil
}
