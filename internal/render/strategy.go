package render

import (
	"strings"

	"neuralchat/pkg/chattypes"
)

// roleRenderer is the transform applied to one turn's content before it
// reaches the rendering host.
type roleRenderer func(r *Renderer, content string) string

// Role dispatch is resolved once per turn through this table: user text is
// trusted plain text and only escaped, assistant text goes through the full
// markup pipeline.
var roleRenderers = map[chattypes.Role]roleRenderer{
	chattypes.RoleUser:      (*Renderer).renderPlain,
	chattypes.RoleAssistant: (*Renderer).renderMarkup,
}

// RenderTurn renders one turn's content according to its role. Unknown
// roles fall back to the plain strategy.
func (r *Renderer) RenderTurn(role chattypes.Role, content string) string {
	fn, ok := roleRenderers[role]
	if !ok {
		fn = (*Renderer).renderPlain
	}
	return fn(r, content)
}

func (r *Renderer) renderMarkup(content string) string {
	return r.Render(content)
}

func (r *Renderer) renderPlain(content string) string {
	escaped := EscapeHTML(strings.TrimSpace(content))
	return strings.ReplaceAll(escaped, "\n", "<br>")
}
