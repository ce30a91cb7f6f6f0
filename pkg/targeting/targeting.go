// Package targeting disambiguates which in-room object an edit instruction
// refers to, using token-overlap scoring over notable props.
package targeting

import (
	"regexp"
	"strings"

	"github.com/jwebster45206/room-director/pkg/roomtext"
	"github.com/jwebster45206/room-director/pkg/world"
)

var (
	wordPattern    = regexp.MustCompile(`[a-z0-9]+`)
	articlePattern = regexp.MustCompile(`(?i)^(a|an|the)\s+`)
)

// Stopwords too generic to count as naming a target.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "to": true,
	"and": true, "in": true, "on": true, "with": true, "from": true,
	"into": true, "more": true, "make": true, "change": true,
}

// words returns the lowercase alphanumeric words of s with length >= minLen.
func words(s string, minLen int) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(strings.ToLower(s), -1) {
		if len(w) >= minLen {
			out = append(out, w)
		}
	}
	return out
}

func wordSet(s string, minLen int) map[string]bool {
	set := make(map[string]bool)
	for _, w := range words(s, minLen) {
		set[w] = true
	}
	return set
}

// ResolveEditTarget picks the notable prop an edit instruction refers to.
//
// An explicit dbref anywhere in the instruction resolves by exact match
// across all room contents and bypasses scoring entirely. Otherwise each
// notable prop is scored by how many of its name tokens (key plus
// article-stripped shortdesc, words >= 3 chars) appear as whole words in the
// instruction; zero-score objects are excluded. A unique best score wins;
// ties come back as an ambiguity list with no target.
func ResolveEditTarget(room *world.Object, instruction string) (*world.Object, []*world.Object) {
	text := strings.TrimSpace(instruction)
	if text == "" {
		return nil, nil
	}

	if dbref := roomtext.ExtractDbref(text); dbref != "" {
		for _, obj := range room.Contents() {
			if obj != nil && obj.Dbref() == dbref {
				return obj, nil
			}
		}
		return nil, nil
	}

	instWords := wordSet(text, 1)

	type scored struct {
		hits int
		obj  *world.Object
	}
	var results []scored
	for _, obj := range world.NotableProps(room) {
		key := strings.TrimSpace(obj.Key())
		sd := strings.TrimSpace(obj.AttrString("shortdesc"))
		sdNoArticle := strings.TrimSpace(articlePattern.ReplaceAllString(sd, ""))

		tokens := wordSet(key, 3)
		for w := range wordSet(sdNoArticle, 3) {
			tokens[w] = true
		}

		hits := 0
		for w := range tokens {
			if instWords[w] {
				hits++
			}
		}
		if hits > 0 {
			results = append(results, scored{hits: hits, obj: obj})
		}
	}

	if len(results) == 0 {
		return nil, nil
	}

	best := 0
	for _, r := range results {
		if r.hits > best {
			best = r.hits
		}
	}
	var winners []*world.Object
	for _, r := range results {
		if r.hits == best {
			winners = append(winners, r.obj)
		}
	}

	if len(winners) == 1 {
		return winners[0], nil
	}
	return nil, winners
}

// InstructionMentionsTarget reports whether the instruction plausibly names
// the target: an explicit dbref is trusted outright, otherwise at least one
// meaningful token (>= 4 chars, not a stopword) from the target's key or
// article-stripped shortdesc must appear as a whole word in the instruction.
// Guards against the resolver confidently picking a target the instruction
// never mentions.
func InstructionMentionsTarget(instruction string, target *world.Object) bool {
	text := strings.ToLower(instruction)
	if roomtext.ExtractDbref(text) != "" {
		return true
	}

	key := strings.ToLower(target.Key())
	sd := strings.ToLower(target.AttrString("shortdesc"))
	sd = strings.TrimSpace(articlePattern.ReplaceAllString(sd, ""))

	tokens := wordSet(key, 1)
	for w := range wordSet(sd, 1) {
		tokens[w] = true
	}

	instWords := wordSet(text, 1)
	for tok := range tokens {
		if len(tok) < 4 || stopwords[tok] {
			continue
		}
		if instWords[tok] {
			return true
		}
	}
	return false
}
