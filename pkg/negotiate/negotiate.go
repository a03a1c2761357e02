package negotiate

import (
	"errors"
	"strings"
)

// MediaType is the response format chosen for a page request.
type MediaType string

const (
	HTML MediaType = "text/html"
	Text MediaType = "text/plain"
)

func (m MediaType) String() string { return string(m) }

// ErrUnsupportedMediaType is returned when neither the Accept header nor the
// path suffix names a format we can generate.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

type rule struct {
	match func(accept, path string) bool
	media MediaType
}

// rules are evaluated in order and the last matching rule wins, so a path
// suffix always beats the Accept header and .txt beats text/html.
var rules = []rule{
	{match: acceptContains("text/html"), media: HTML},
	{match: acceptContains("text/plain"), media: Text},
	{match: pathSuffix(".html"), media: HTML},
	{match: pathSuffix(".txt"), media: Text},
}

func acceptContains(s string) func(accept, path string) bool {
	return func(accept, _ string) bool { return strings.Contains(accept, s) }
}

func pathSuffix(s string) func(accept, path string) bool {
	return func(_, path string) bool { return strings.HasSuffix(path, s) }
}

// Negotiate picks the media type for a request from its raw Accept header and
// URL path.
func Negotiate(accept, path string) (MediaType, error) {
	var selected MediaType
	for _, r := range rules {
		if r.match(accept, path) {
			selected = r.media
		}
	}
	if selected == "" {
		return "", ErrUnsupportedMediaType
	}
	return selected, nil
}
