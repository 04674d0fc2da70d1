package matcher

// Assignment is one raw header mapped to a canonical field.
type Assignment struct {
	Raw       string
	Canonical string
	Score     float64
}

// HeaderMapping maps raw headers to canonical fields. Each canonical field
// is claimed by at most one raw header.
type HeaderMapping struct {
	Assignments []Assignment
	// Unmapped lists headers below the threshold or whose field was already claimed.
	Unmapped []string

	byRaw       map[string]string
	byCanonical map[string]string
}

// MapHeaders matches headers in order. The first header to reach a canonical
// field claims it; later headers matching the same field stay unmapped.
func (m *Matcher) MapHeaders(headers []string) HeaderMapping {
	hm := HeaderMapping{
		byRaw:       make(map[string]string),
		byCanonical: make(map[string]string),
	}

	for _, h := range headers {
		r, ok := m.Match(h)
		if !ok {
			hm.Unmapped = append(hm.Unmapped, h)
			continue
		}
		if _, claimed := hm.byCanonical[r.Name]; claimed {
			hm.Unmapped = append(hm.Unmapped, h)
			continue
		}
		hm.byCanonical[r.Name] = h
		hm.byRaw[h] = r.Name
		hm.Assignments = append(hm.Assignments, Assignment{Raw: h, Canonical: r.Name, Score: r.Score})
	}
	return hm
}

// Canonical returns the canonical field a raw header maps to.
func (hm HeaderMapping) Canonical(raw string) (string, bool) {
	c, ok := hm.byRaw[raw]
	return c, ok
}

// Raw returns the header that claimed a canonical field.
func (hm HeaderMapping) Raw(canonical string) (string, bool) {
	r, ok := hm.byCanonical[canonical]
	return r, ok
}

// Has reports whether a canonical field was claimed.
func (hm HeaderMapping) Has(canonical string) bool {
	_, ok := hm.byCanonical[canonical]
	return ok
}

// Fields returns the claimed canonical fields in claim order.
func (hm HeaderMapping) Fields() []string {
	out := make([]string, 0, len(hm.Assignments))
	for _, a := range hm.Assignments {
		out = append(out, a.Canonical)
	}
	return out
}

// Len returns the number of distinct canonical fields claimed.
func (hm HeaderMapping) Len() int {
	return len(hm.Assignments)
}
