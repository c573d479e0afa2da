package render

// segment is one span of the intermediate representation the pipeline runs
// over. Protected segments carry already-emitted code block markup; text
// stages never see them, which enforces the "no transforms inside code"
// invariant structurally rather than by pattern avoidance.
type segment struct {
	text      string
	protected bool
}

// mapText applies fn to every unprotected segment.
func mapText(segs []segment, fn func(string) string) []segment {
	for i := range segs {
		if segs[i].protected {
			continue
		}
		segs[i].text = fn(segs[i].text)
	}
	return segs
}
