// internal/notify/template.go
package notify

import (
	"fmt"
	"regexp"

	"maintenance-dispatch/internal/models"
	"maintenance-dispatch/internal/rules"
)

var templateVarPattern = regexp.MustCompile(`\{\{([a-zA-Z][a-zA-Z0-9.]*)\}\}`)

// RenderTemplate substitutes literal {{path}} variables against the snapshot
// using the same dotted-path resolver rule conditions use. Unresolved
// variables stay as the literal {{path}} token so a broken template is
// visible in the delivered message instead of silently blanked.
func RenderTemplate(tmpl string, snapshot *models.Snapshot) string {
	return templateVarPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		path := templateVarPattern.FindStringSubmatch(match)[1]
		value, ok := rules.Resolve(snapshot, path)
		if !ok || value == nil {
			return match
		}
		switch v := value.(type) {
		case string:
			return v
		case float64:
			if v == float64(int64(v)) {
				return fmt.Sprintf("%d", int64(v))
			}
			return fmt.Sprintf("%.2f", v)
		case bool:
			return fmt.Sprintf("%t", v)
		default:
			return fmt.Sprintf("%v", v)
		}
	})
}
