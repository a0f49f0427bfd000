package rules

import (
	"regexp"
	"strings"
)

// ProductToken describes one substitution token in a product-code template.
// Quirks of the external product-code vocabulary are data here, not code:
// adding a token or a connection-code respelling is a table change.
type ProductToken struct {
	// Token is the literal placeholder, e.g. "{connection}".
	Token string
	// ContextKey names the context value substituted for the token.
	ContextKey string
	// Rewrites maps specific context values to their product-code spelling.
	Rewrites map[string]string
	// Elide lists context values for which the token (and one preceding
	// space, if present) is removed instead of substituted.
	Elide map[string]bool
}

// DefaultProductTokens is the substitution table for the rail crossing
// product vocabulary. "BP" connections are omitted from product codes, and
// "HK" is spelled "H K".
var DefaultProductTokens = []ProductToken{
	{
		Token:      "{material}",
		ContextKey: "material",
	},
	{
		Token:      "{connection}",
		ContextKey: "connection",
		Rewrites:   map[string]string{"HK": "H K"},
		Elide:      map[string]bool{"BP": true},
	},
}

var spaceRun = regexp.MustCompile(`\s+`)

// SubstituteTokens expands the substitution table against a product-code
// template, then collapses repeated whitespace and trims.
func SubstituteTokens(template string, ctx Context) string {
	result := template

	for _, tok := range DefaultProductTokens {
		if !strings.Contains(result, tok.Token) {
			continue
		}

		value := ctx.String(tok.ContextKey)

		if tok.Elide[value] {
			result = strings.ReplaceAll(result, " "+tok.Token, "")
			result = strings.ReplaceAll(result, tok.Token, "")
			continue
		}

		if rewritten, ok := tok.Rewrites[value]; ok {
			value = rewritten
		}
		result = strings.ReplaceAll(result, tok.Token, value)
	}

	return strings.TrimSpace(spaceRun.ReplaceAllString(result, " "))
}
