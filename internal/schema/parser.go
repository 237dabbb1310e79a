package schema

import (
	"strings"
	"unicode"
)

// A relationship sentence is a list of clauses joined by "and" (optionally
// "and each"). Every clause follows the grammar
//
//	[determiner] parent-word+ verb quantifier child-word+
//
// where determiner is a/an/the/each/every, verb is has/includes and
// quantifier is many/multiple. Clauses that do not fit are skipped.

var (
	determiners = map[string]bool{"a": true, "an": true, "the": true, "each": true, "every": true}
	verbs       = map[string]bool{"has": true, "includes": true}
	quantifiers = map[string]bool{"many": true, "multiple": true}
)

// ClauseMiss records a clause the grammar rejected.
type ClauseMiss struct {
	Clause string
	Reason string
}

// Clause is a matched parent/child pair, names already normalized.
type Clause struct {
	Parent string
	Child  string
}

// ParseResult carries the entity graph together with parse diagnostics.
type ParseResult struct {
	Graph   *Graph
	Clauses []Clause
	Misses  []ClauseMiss
}

// Parse turns a relationship sentence into an entity graph. It never fails:
// clauses that do not match are dropped.
func Parse(sentence string) *Graph {
	return ParseDetailed(sentence).Graph
}

// ParseDetailed is Parse plus the matched clauses and the misses.
func ParseDetailed(sentence string) *ParseResult {
	res := &ParseResult{Graph: NewGraph()}
	for _, tokens := range splitClauses(tokenize(sentence)) {
		c, reason, ok := matchClause(tokens)
		if !ok {
			res.Misses = append(res.Misses, ClauseMiss{Clause: strings.Join(tokens, " "), Reason: reason})
			continue
		}
		res.Graph.AddHasMany(c.Parent, c.Child)
		res.Clauses = append(res.Clauses, c)
	}
	return res
}

// tokenize lower-cases the input and splits it into words. Anything that is
// not a letter, digit or hyphen separates words.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

// splitClauses cuts the token stream on the word "and", dropping an "each"
// that directly follows it.
func splitClauses(tokens []string) [][]string {
	var (
		out     [][]string
		current []string
	)
	for i := 0; i < len(tokens); i++ {
		if tokens[i] != "and" {
			current = append(current, tokens[i])
			continue
		}
		if len(current) > 0 {
			out = append(out, current)
		}
		current = nil
		if i+1 < len(tokens) && tokens[i+1] == "each" {
			i++
		}
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func matchClause(tokens []string) (Clause, string, bool) {
	verb := -1
	for i, tok := range tokens {
		if verbs[tok] {
			verb = i
			break
		}
	}
	if verb < 0 {
		return Clause{}, "no verb (has/includes)", false
	}

	// The parent run starts after the last determiner preceding the verb, so
	// leading filler such as "i need a" is tolerated.
	start := 0
	for i := verb - 1; i >= 0; i-- {
		if determiners[tokens[i]] {
			start = i + 1
			break
		}
	}
	parent := tokens[start:verb]
	if len(parent) == 0 {
		return Clause{}, "missing parent name", false
	}

	if verb+1 >= len(tokens) || !quantifiers[tokens[verb+1]] {
		return Clause{}, "no quantifier (many/multiple) after verb", false
	}
	child := tokens[verb+2:]
	if len(child) == 0 {
		return Clause{}, "missing child name", false
	}

	return Clause{
		Parent: CanonicalName(strings.Join(parent, " ")),
		Child:  CanonicalName(strings.Join(child, " ")),
	}, "", true
}
