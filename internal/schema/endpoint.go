package schema

import "strings"

// Endpoint is a manual-mode definition: a path and the template each response
// is generated from. Endpoints carry no relationship semantics.
type Endpoint struct {
	Path     string         `json:"path" yaml:"path"`
	Response map[string]any `json:"response" yaml:"response"`
}

// PathSegments returns the non-empty segments of p.
func PathSegments(p string) []string {
	parts := strings.Split(p, "/")
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsParamSegment reports whether a path segment is a parameter, written either
// as ":name" or "{name}".
func IsParamSegment(seg string) bool {
	return strings.HasPrefix(seg, ":") || (strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"))
}

// ParamName strips the parameter marker from a segment.
func ParamName(seg string) string {
	if strings.HasPrefix(seg, ":") {
		return seg[1:]
	}
	return strings.TrimSuffix(strings.TrimPrefix(seg, "{"), "}")
}

// IsSingleItem classifies a manual endpoint: it serves a single object when
// its final segment is a parameter, and a collection otherwise. A parameter
// earlier in the path does not change that ("/users/:id/posts" is a
// collection).
func (e Endpoint) IsSingleItem() bool {
	segs := PathSegments(e.Path)
	if len(segs) == 0 {
		return false
	}
	return IsParamSegment(segs[len(segs)-1])
}
