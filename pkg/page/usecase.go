package page

import (
	"context"
	"fmt"
	"strings"

	"github.com/artem13815/pagegen/pkg/llm"
	"github.com/artem13815/pagegen/pkg/negotiate"
)

// Request is the part of an inbound HTTP request a page is generated from.
type Request struct {
	Method string
	URL    string
	Media  negotiate.MediaType
}

// Generator describes the page generation use case.
type Generator interface {
	Generate(ctx context.Context, req Request) (<-chan llm.StreamEvent, error)
}

type generator struct {
	model llm.StreamingModel
}

// NewGenerator creates the default implementation backed by a streaming model.
func NewGenerator(model llm.StreamingModel) Generator {
	return &generator{model: model}
}

func (g *generator) Generate(ctx context.Context, req Request) (<-chan llm.StreamEvent, error) {
	if req.Media != negotiate.HTML && req.Media != negotiate.Text {
		return nil, negotiate.ErrUnsupportedMediaType
	}
	ch, err := g.model.Stream(ctx, BuildPrompt(req))
	if err != nil {
		return nil, fmt.Errorf("generate page: %w", err)
	}
	return ch, nil
}

const promptHeader = `You are an HTTP server simulating dynamic page generation.
Method: %s, Path: %s
Respond in %s format only.
Do not wrap the output in markdown code blocks (` + "```" + `).
`

const textRules = `
Provide only plain, relevant content for the requested path.
`

const htmlRules = `
HTML requirements:
 - Include <meta charset='utf-8'>
 - Use inline styles only
 - Do not link to local resources (images, CSS, JS)
 - External resources and public APIs are allowed
 - Include at least one hyperlink
 - Use slug-style URLs in links
`

// BuildPrompt renders the model instruction for a page request.
func BuildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptHeader, req.Method, req.URL, req.Media)
	switch req.Media {
	case negotiate.HTML:
		b.WriteString(htmlRules)
	case negotiate.Text:
		b.WriteString(textRules)
	}
	return b.String()
}
