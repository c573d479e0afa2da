// Package render implements the markdown-subset-to-markup pipeline for
// assistant responses. The pipeline is an ordered sequence of pure stages
// over a segment list; fenced code bodies are extracted into protected
// segments first, so no later stage can touch them.
//
// Render must only ever be called on original raw text, never on its own
// output.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"neuralchat/internal/testutils"
	"neuralchat/pkg/chattypes"
)

// Renderer transforms raw assistant text into display markup.
type Renderer struct {
	ctx chattypes.Context
}

// New creates a Renderer. The context is only consulted for deterministic
// code block identifiers in test mode.
func New(ctx chattypes.Context) *Renderer {
	return &Renderer{ctx: ctx}
}

var (
	// A complete fence: opening delimiter with optional language tag,
	// body, closing delimiter. Non-greedy so adjacent blocks stay apart.
	fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+#.-]*)\n?(.*?)```")

	// An opened-but-unterminated fence, matched against what remains
	// after every complete fence has been extracted. Supports progressive
	// rendering of a code block that is still streaming in.
	partialFenceRe = regexp.MustCompile("(?s)```([a-zA-Z0-9+#.-]*)\n?(.*)$")

	heading3Re = regexp.MustCompile(`(?m)^### (.*)$`)
	heading2Re = regexp.MustCompile(`(?m)^## (.*)$`)
	heading1Re = regexp.MustCompile(`(?m)^# (.*)$`)

	boldLabelRe = regexp.MustCompile(`\*\*([^*]+):\*\*`)
	boldRe      = regexp.MustCompile(`\*\*([^*]+)\*\*`)

	numberedItemRe = regexp.MustCompile(`^(\d+)\.\s+(.+)`)
	bulletItemRe   = regexp.MustCompile(`^[•*\-]\s+(.+)`)

	mailtoLinkRe  = regexp.MustCompile(`\[([^\]]+)\]\(mailto:([^\)]+)\)`)
	genericLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)
	bareEmailRe   = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	inlineCodeRe = regexp.MustCompile("`([^`\n]+)`")
)

// Render runs the full pipeline over raw assistant text and returns markup.
// Stage order is load-bearing: each stage assumes earlier stages have
// already run and must not re-process their output.
func (r *Renderer) Render(raw string) string {
	content := strings.TrimSpace(raw)
	if content == "" {
		return ""
	}

	segs := r.extractCode(content)
	segs = mapText(segs, formatHeadings)
	segs = mapText(segs, formatBold)
	segs = mapText(segs, formatLists)
	segs = mapText(segs, formatLinks)
	segs = mapText(segs, formatInlineCode)
	segs = mapText(segs, formatParagraphs)

	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.text)
	}
	return b.String()
}

// extractCode splits content into plain-text segments and protected code
// block segments. Complete fences are extracted first; a remaining opening
// delimiter is treated as an unterminated fence running to end of string
// (complete fence wins when both could apply).
func (r *Renderer) extractCode(content string) []segment {
	var segs []segment
	rest := content

	for {
		loc := fencedBlockRe.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		if loc[0] > 0 {
			segs = append(segs, segment{text: rest[:loc[0]]})
		}
		segs = append(segs, segment{
			text:      r.codeBlockMarkup(group(rest, loc, 1), group(rest, loc, 2)),
			protected: true,
		})
		rest = rest[loc[1]:]
	}

	if loc := partialFenceRe.FindStringSubmatchIndex(rest); loc != nil {
		if loc[0] > 0 {
			segs = append(segs, segment{text: rest[:loc[0]]})
		}
		segs = append(segs, segment{
			text:      r.codeBlockMarkup(group(rest, loc, 1), group(rest, loc, 2)),
			protected: true,
		})
	} else if rest != "" {
		segs = append(segs, segment{text: rest})
	}

	return segs
}

// codeBlockMarkup builds the self-contained block structure for one code
// body: language label, copy-affordance identifier, escaped code. The body
// is the only content in the whole pipeline that gets HTML-escaped.
func (r *Renderer) codeBlockMarkup(lang, body string) string {
	if lang == "" {
		lang = "text"
	}
	codeID := testutils.GenerateCodeBlockID(r.ctx)

	return fmt.Sprintf(
		`<div class="code-block">`+
			`<div class="code-header">`+
			`<span class="code-language">%s</span>`+
			`<button class="copy-code-btn" data-code-id="%s" title="Copy code">Copy</button>`+
			`</div>`+
			`<pre class="code-content" data-code-id="%s"><code class="language-%s">%s</code></pre>`+
			`</div>`,
		lang, codeID, codeID, lang, EscapeHTML(strings.TrimSpace(body)))
}

// formatHeadings converts 1-3 leading # markers into heading elements.
// Most specific pattern first, so ### is not half-eaten by #.
func formatHeadings(text string) string {
	text = heading3Re.ReplaceAllString(text, `<h3 class="response-header-3">$1</h3>`)
	text = heading2Re.ReplaceAllString(text, `<h2 class="response-header-2">$1</h2>`)
	text = heading1Re.ReplaceAllString(text, `<h1 class="response-header-1">$1</h1>`)
	return text
}

// formatBold handles **Label:** before the generic **bold** pattern so the
// label form keeps its distinct class.
func formatBold(text string) string {
	text = boldLabelRe.ReplaceAllString(text, `<strong class="bold-label">$1:</strong>`)
	text = boldRe.ReplaceAllString(text, `<strong>$1</strong>`)
	return text
}

// formatLists groups consecutive numbered lines into an ordered list and
// consecutive bulleted lines into an unordered list. A run closes when a
// line of the other family, or a non-list line, appears.
func formatLists(text string) string {
	lines := strings.Split(text, "\n")
	formatted := make([]string, 0, len(lines))
	inOrdered := false
	inUnordered := false

	closeOrdered := func() {
		if inOrdered {
			formatted = append(formatted, "</ol>")
			inOrdered = false
		}
	}
	closeUnordered := func() {
		if inUnordered {
			formatted = append(formatted, "</ul>")
			inUnordered = false
		}
	}

	for _, rawLine := range lines {
		line := strings.TrimSpace(rawLine)

		if m := numberedItemRe.FindStringSubmatch(line); m != nil {
			closeUnordered()
			if !inOrdered {
				formatted = append(formatted, `<ol class="formatted-list ordered">`)
				inOrdered = true
			}
			formatted = append(formatted, "<li>"+m[2]+"</li>")
			continue
		}

		if m := bulletItemRe.FindStringSubmatch(line); m != nil {
			closeOrdered()
			if !inUnordered {
				formatted = append(formatted, `<ul class="formatted-list unordered">`)
				inUnordered = true
			}
			formatted = append(formatted, "<li>"+m[1]+"</li>")
			continue
		}

		closeOrdered()
		closeUnordered()
		formatted = append(formatted, line)
	}

	closeOrdered()
	closeUnordered()

	return strings.Join(formatted, "\n")
}

// formatLinks rewrites [label](mailto:addr) and [label](url) anchors, then
// wraps bare email tokens that are not already part of a tag or anchor.
func formatLinks(text string) string {
	text = mailtoLinkRe.ReplaceAllString(text, `<a href="mailto:$2" class="email-link">$1</a>`)
	text = genericLinkRe.ReplaceAllString(text, `<a href="$2" class="response-link" target="_blank" rel="noopener">$1</a>`)
	return wrapBareEmails(text)
}

func wrapBareEmails(text string) string {
	matches := bareEmailRe.FindAllStringIndex(text, -1)
	if matches == nil {
		return text
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		if insideTag(text, m[0]) || insideAnchor(text, m[0]) {
			continue
		}
		addr := text[m[0]:m[1]]
		b.WriteString(text[last:m[0]])
		b.WriteString(`<a href="mailto:` + addr + `" class="email-link">` + addr + `</a>`)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// insideTag reports whether pos falls between a '<' and its closing '>',
// i.e. inside a tag's attribute region.
func insideTag(s string, pos int) bool {
	open := strings.LastIndex(s[:pos], "<")
	if open == -1 {
		return false
	}
	return strings.LastIndex(s[:pos], ">") < open
}

// insideAnchor reports whether pos falls inside the text content of an
// already emitted anchor element.
func insideAnchor(s string, pos int) bool {
	open := strings.LastIndex(s[:pos], "<a ")
	if open == -1 {
		return false
	}
	return strings.LastIndex(s[:pos], "</a>") < open
}

// formatInlineCode converts single-backtick spans that do not cross a
// newline. Runs after code extraction, so it can never fire inside a fence.
func formatInlineCode(text string) string {
	return inlineCodeRe.ReplaceAllString(text, `<code class="inline-code">$1</code>`)
}

// formatParagraphs splits on blank-line boundaries and wraps chunks that do
// not already look like markup, converting inner newlines to line breaks.
func formatParagraphs(text string) string {
	paragraphs := strings.Split(text, "\n\n")

	var b strings.Builder
	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if strings.HasPrefix(paragraph, "<") ||
			strings.Contains(paragraph, "<li>") ||
			strings.Contains(paragraph, "<h") {
			b.WriteString(paragraph)
			continue
		}

		paragraph = strings.ReplaceAll(paragraph, "\n", "<br>")
		b.WriteString(`<p class="response-paragraph">` + paragraph + `</p>`)
	}
	return b.String()
}

// EscapeHTML escapes the five HTML-significant characters. Used for code
// block bodies and for user-influenced strings (session titles) wherever
// they are interpolated into surrounding markup.
func EscapeHTML(text string) string {
	text = strings.ReplaceAll(text, "&", "&amp;")
	text = strings.ReplaceAll(text, "<", "&lt;")
	text = strings.ReplaceAll(text, ">", "&gt;")
	text = strings.ReplaceAll(text, `"`, "&quot;")
	text = strings.ReplaceAll(text, "'", "&#039;")
	return text
}

func group(s string, loc []int, n int) string {
	if loc[2*n] == -1 {
		return ""
	}
	return s[loc[2*n]:loc[2*n+1]]
}
