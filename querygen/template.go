// Package querygen synthesizes SPARQL and Cypher queries from natural
// language against a schema priming text, and runs the one-retry repair
// loop §4.6 specifies on execution failure. Template assembly follows
// db/poolparty.go's LoadTemplate/ExecuteSPARQLFromTemplate caching
// pattern (parse once per template name, execute per call with fresh
// parameters) rather than re-parsing the priming template on every query.
package querygen

import (
	"bytes"
	"fmt"
	"sync"
	"text/template"
)

// templateCache parses each named text/template body once and reuses the
// parsed *template.Template across calls, the same cache-by-name idiom
// PoolPartyClient.templateCache uses for its SPARQL query templates.
type templateCache struct {
	mu    sync.Mutex
	cache map[string]*template.Template
}

func newTemplateCache() *templateCache {
	return &templateCache{cache: make(map[string]*template.Template)}
}

func (c *templateCache) render(name, body string, params interface{}) (string, error) {
	c.mu.Lock()
	tmpl, ok := c.cache[name]
	if !ok {
		var err error
		tmpl, err = template.New(name).Parse(body)
		if err != nil {
			c.mu.Unlock()
			return "", fmt.Errorf("querygen: parse template %s: %w", name, err)
		}
		c.cache[name] = tmpl
	}
	c.mu.Unlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("querygen: execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
