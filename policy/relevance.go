// Package policy implements the relevance-threshold classifier used to
// decide how much similarity a retrieved chunk needs before it is trusted
// as answer context. Thresholds encode a bias toward trusting indexed
// documents for personal and technical queries, and toward live web search
// for time-sensitive or generic ones.
package policy

import "strings"

// Rule pairs a set of trigger terms with the similarity threshold applied
// when any of them appears in the query. Matching is case-insensitive
// substring containment.
type Rule struct {
	// Name labels the rule in logs and tests.
	Name string

	// Terms are the trigger phrases. A query matches the rule when it
	// contains at least one of them.
	Terms []string

	// Threshold is the minimum similarity score, in [0,1], required for a
	// retrieved chunk to be kept when this rule matches.
	Threshold float64
}

// Policy classifies queries into a minimum similarity threshold. Rules are
// evaluated in order and the first match wins; Default applies when no rule
// matches. Term lists and thresholds are plain data supplied at
// construction, so the classifier is extensible without code changes.
type Policy struct {
	rules        []Rule
	defaultScore float64
}

// New creates a Policy from an ordered rule list and a default threshold.
func New(rules []Rule, defaultThreshold float64) *Policy {
	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Policy{rules: owned, defaultScore: defaultThreshold}
}

// Threshold returns the minimum similarity score for accepting retrieved
// context for the given query, in [0,1].
func (p *Policy) Threshold(query string) float64 {
	score, _ := p.Classify(query)
	return score
}

// Classify returns the threshold together with the name of the rule that
// produced it ("default" when no rule matched), for logging.
func (p *Policy) Classify(query string) (float64, string) {
	lowered := strings.ToLower(query)
	for _, rule := range p.rules {
		for _, term := range rule.Terms {
			if strings.Contains(lowered, term) {
				return rule.Threshold, rule.Name
			}
		}
	}
	return p.defaultScore, "default"
}

// Default returns a policy with the stock rule table:
//
//  1. Known-entity terms (documents the stack indexes are usually about)
//     keep a forgiving 0.70 floor.
//  2. Technical and skill terms keep an even lower 0.65 floor, since
//     indexed documents answer these best.
//  3. Current-events indicators demand 0.95: indexed documents rarely
//     answer them, so retrieval should fail over to web search.
//  4. Generic question openers get a cautious 0.80.
//  5. Everything else defaults to 0.75.
//
// Rule order is significant: a query mentioning both a technical term and a
// news indicator is classified by whichever rule appears first.
func Default() *Policy {
	return New([]Rule{
		{
			Name:      "known_entity",
			Terms:     []string{"resume", "cv", "portfolio", "candidate", "profile", "background"},
			Threshold: 0.70,
		},
		{
			Name: "technical",
			Terms: []string{
				"react", "node", "python", "golang", "javascript", "typescript",
				"java", "sql", "docker", "kubernetes", "aws", "frontend",
				"backend", "database", "microservice", "experience", "skill",
				"project", "framework",
			},
			Threshold: 0.65,
		},
		{
			Name: "external_events",
			Terms: []string{
				"news", "today", "latest", "current", "recent", "weather",
				"stock", "price", "score", "happening", "update",
			},
			Threshold: 0.95,
		},
		{
			Name: "generic_question",
			Terms: []string{
				"who is", "what is", "where is", "when is", "when was",
				"how to", "tell me about", "explain",
			},
			Threshold: 0.80,
		},
	}, 0.75)
}
