// internal/app/features/offers/templates.go
package offers

import (
	"embed"

	"github.com/dalemusser/waffle/pantry/templates"
)

//go:embed templates/*.gohtml
var FS embed.FS

func init() {
	templates.Register(templates.Set{
		Name:     "offers",
		FS:       FS,
		Patterns: []string{"templates/*.gohtml"},
	})
}
