package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuralchat/internal/context"
	"neuralchat/internal/storage"
	"neuralchat/internal/testutils"
	"neuralchat/pkg/chattypes"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	testutils.ResetTestCounters()
	ctx := context.New(storage.NewMemoryStore())
	ctx.SetTestMode(true)
	return New(ctx)
}

func TestRender_EmptyInput(t *testing.T) {
	r := newTestRenderer(t)
	assert.Equal(t, "", r.Render(""))
	assert.Equal(t, "", r.Render("   \n\t  "))
}

func TestRender_PlainParagraph(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("Hello there.")
	assert.Equal(t, `<p class="response-paragraph">Hello there.</p>`, result)
}

func TestRender_ParagraphLineBreaks(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("line one\nline two\n\nsecond paragraph")
	assert.Contains(t, result, `<p class="response-paragraph">line one<br>line two</p>`)
	assert.Contains(t, result, `<p class="response-paragraph">second paragraph</p>`)
}

func TestRender_Headings(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("# Title\n\n## Section\n\n### Detail")
	assert.Contains(t, result, `<h1 class="response-header-1">Title</h1>`)
	assert.Contains(t, result, `<h2 class="response-header-2">Section</h2>`)
	assert.Contains(t, result, `<h3 class="response-header-3">Detail</h3>`)
	// The h3 marker must not be half-eaten by the h1 pattern.
	assert.NotContains(t, result, "##")
}

func TestRender_BoldAndBoldLabel(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("**Note:** this is **important**")
	assert.Contains(t, result, `<strong class="bold-label">Note:</strong>`)
	assert.Contains(t, result, `<strong>important</strong>`)
	assert.NotContains(t, result, "**")
}

func TestRender_CodeBlockWithLanguage(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("```python\nprint(\"hi\")\n```")
	assert.Contains(t, result, `<span class="code-language">python</span>`)
	assert.Contains(t, result, `<code class="language-python">`)
	assert.Contains(t, result, `data-code-id="code_1"`)
	assert.Contains(t, result, "print(&quot;hi&quot;)")
}

func TestRender_CodeBlockDefaultLanguage(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("```\nraw stuff\n```")
	assert.Contains(t, result, `<span class="code-language">text</span>`)
	assert.Contains(t, result, `<code class="language-text">`)
}

func TestRender_CodeBlockProtectsInnerMarkdown(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("```\n**bold** stays literal\n# not a heading\n- not a bullet\n```")
	assert.Contains(t, result, "**bold** stays literal")
	assert.Contains(t, result, "# not a heading")
	assert.Contains(t, result, "- not a bullet")
	assert.NotContains(t, result, "<strong>")
	assert.NotContains(t, result, "<h1")
	assert.NotContains(t, result, "<ul")
}

func TestRender_CodeBlockEscapesBody(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("```html\n<div class=\"x\">&</div>\n```")
	assert.Contains(t, result, "&lt;div class=&quot;x&quot;&gt;&amp;&lt;/div&gt;")
	assert.NotContains(t, result, `<div class="x">`)
}

func TestRender_PartialFence(t *testing.T) {
	r := newTestRenderer(t)
	// Unterminated fence mid-stream still renders as a code block.
	result := r.Render("Here it comes:\n```go\nfunc main() {")
	assert.Contains(t, result, `<span class="code-language">go</span>`)
	assert.Contains(t, result, "func main() {")
	assert.Contains(t, result, "Here it comes:")
}

func TestRender_CompleteFenceWinsOverPartial(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("```go\ndone()\n```\ntrailing text")
	assert.Contains(t, result, "done()")
	assert.Contains(t, result, "trailing text")
	// Exactly one code block: the trailing text must not be swallowed
	// into a second partial fence.
	assert.Equal(t, 1, strings.Count(result, `<div class="code-block">`))
}

func TestRender_AdjacentCodeBlocksStayApart(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("```\nfirst\n```\nbetween\n```\nsecond\n```")
	assert.Equal(t, 2, strings.Count(result, `<div class="code-block">`))
	assert.Contains(t, result, `data-code-id="code_1"`)
	assert.Contains(t, result, `data-code-id="code_2"`)
	assert.Contains(t, result, "between")
}

func TestRender_OrderedList(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("1. first\n2. second\n3. third")
	require.Contains(t, result, `<ol class="formatted-list ordered">`)
	assert.Contains(t, result, "<li>first</li>")
	assert.Contains(t, result, "<li>second</li>")
	assert.Contains(t, result, "<li>third</li>")
	assert.Contains(t, result, "</ol>")
	assert.Equal(t, 1, strings.Count(result, "<ol"))
}

func TestRender_UnorderedListMarkers(t *testing.T) {
	r := newTestRenderer(t)
	for _, marker := range []string{"-", "*", "•"} {
		result := r.Render(marker + " item one\n" + marker + " item two")
		assert.Contains(t, result, `<ul class="formatted-list unordered">`, "marker %q", marker)
		assert.Contains(t, result, "<li>item one</li>", "marker %q", marker)
		assert.Contains(t, result, "</ul>", "marker %q", marker)
	}
}

func TestRender_ListRunsCloseOnFamilyChange(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("1. alpha\n- beta\n2. gamma")
	assert.Equal(t, 2, strings.Count(result, "<ol"))
	assert.Equal(t, 1, strings.Count(result, "<ul"))
	// Every opened list is closed.
	assert.Equal(t, 2, strings.Count(result, "</ol>"))
	assert.Equal(t, 1, strings.Count(result, "</ul>"))
}

func TestRender_ListClosesOnPlainLine(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("- one\n- two\nplain text after")
	closing := strings.Index(result, "</ul>")
	plain := strings.Index(result, "plain text after")
	require.NotEqual(t, -1, closing)
	require.NotEqual(t, -1, plain)
	assert.Less(t, closing, plain)
}

func TestRender_MailtoAndGenericLinks(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("[write us](mailto:hi@example.com) or see [docs](https://example.com/docs)")
	assert.Contains(t, result, `<a href="mailto:hi@example.com" class="email-link">write us</a>`)
	assert.Contains(t, result, `<a href="https://example.com/docs" class="response-link" target="_blank" rel="noopener">docs</a>`)
}

func TestRender_BareEmailWrapped(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("reach me at someone@example.org today")
	assert.Contains(t, result, `<a href="mailto:someone@example.org" class="email-link">someone@example.org</a>`)
}

func TestRender_BareEmailNotRewrappedInsideAnchor(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("[mail](mailto:dev@example.com)")
	// The address inside the generated href must not be wrapped again.
	assert.Equal(t, 1, strings.Count(result, "mailto:dev@example.com"))
	assert.Equal(t, 1, strings.Count(result, "<a "))
}

func TestRender_InlineCode(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("run `go version` to check")
	assert.Contains(t, result, `<code class="inline-code">go version</code>`)
}

func TestRender_InlineCodeDoesNotCrossNewline(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("a `broken\nspan` here")
	assert.NotContains(t, result, `<code class="inline-code">`)
}

func TestRender_InlineCodeInsideFenceUntouched(t *testing.T) {
	r := newTestRenderer(t)
	result := r.Render("```\nuse `backticks` here\n```")
	assert.Contains(t, result, "use `backticks` here")
	assert.NotContains(t, result, `<code class="inline-code">`)
}

func TestRender_MixedDocument(t *testing.T) {
	r := newTestRenderer(t)
	raw := "## Setup\n\n1. install it\n2. run `init`\n\n```bash\nmake build\n```\n\nDone, see [docs](https://example.com)."
	result := r.Render(raw)
	assert.Contains(t, result, `<h2 class="response-header-2">Setup</h2>`)
	assert.Contains(t, result, `<ol class="formatted-list ordered">`)
	assert.Contains(t, result, `<code class="inline-code">init</code>`)
	assert.Contains(t, result, `<span class="code-language">bash</span>`)
	assert.Contains(t, result, "make build")
	assert.Contains(t, result, `class="response-link"`)
}

func TestRenderTurn_UserIsEscapedPlainText(t *testing.T) {
	r := newTestRenderer(t)
	result := r.RenderTurn(chattypes.RoleUser, `**not bold** <script>alert("x")</script>`)
	assert.Contains(t, result, "**not bold**")
	assert.Contains(t, result, "&lt;script&gt;")
	assert.NotContains(t, result, "<strong>")
	assert.NotContains(t, result, "<script>")
}

func TestRenderTurn_AssistantGetsMarkup(t *testing.T) {
	r := newTestRenderer(t)
	result := r.RenderTurn(chattypes.RoleAssistant, "**bold**")
	assert.Contains(t, result, "<strong>bold</strong>")
}

func TestRenderTurn_UnknownRoleFallsBackToPlain(t *testing.T) {
	r := newTestRenderer(t)
	result := r.RenderTurn(chattypes.Role("system"), "**raw**")
	assert.Contains(t, result, "**raw**")
	assert.NotContains(t, result, "<strong>")
}

func TestEscapeHTML(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&#039;", EscapeHTML(`&<>"'`))
	assert.Equal(t, "plain", EscapeHTML("plain"))
}
