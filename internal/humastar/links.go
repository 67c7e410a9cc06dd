package humastar

import (
	"fmt"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// LinkTransformer returns a Huma Transformer that injects RFC 8288 Link
// headers: the static links registered for the operation path, a self link
// for item paths, and the state-dependent actions of [Actor] bodies.
func LinkTransformer(static map[string][]string) huma.Transformer {
	return func(ctx huma.Context, status string, v any) (any, error) {
		op := ctx.Operation()
		if op == nil {
			return v, nil
		}

		for _, link := range static[op.Path] {
			ctx.AppendHeader("Link", link)
		}

		// Item endpoints get a self link with the resolved URL.
		if strings.Contains(op.Path, "{") {
			ctx.AppendHeader("Link", fmt.Sprintf(`<%s>; rel="self"`, ctx.URL().Path))
		}

		if a, ok := v.(Actor); ok {
			for _, action := range a.Actions() {
				ctx.AppendHeader("Link", action.LinkHeader())
			}
		}

		return v, nil
	}
}

// InjectResponseLinks documents the static links as OpenAPI Link objects on
// each operation's success response. Call after all routes are registered.
func InjectResponseLinks(api huma.API, static map[string][]string) {
	for p, pi := range api.OpenAPI().Paths {
		headers, ok := static[p]
		if !ok {
			continue
		}
		for _, op := range []*huma.Operation{pi.Get, pi.Post, pi.Put, pi.Patch, pi.Delete} {
			if op != nil {
				injectResponseLinks(op, headers)
			}
		}
	}
}

func injectResponseLinks(op *huma.Operation, headers []string) {
	if op.Responses == nil {
		return
	}
	var resp *huma.Response
	for code, r := range op.Responses {
		if strings.HasPrefix(code, "2") {
			resp = r
			break
		}
	}
	if resp == nil {
		return
	}
	if resp.Links == nil {
		resp.Links = map[string]*huma.Link{}
	}
	for _, h := range headers {
		rel, href := parseLinkHeader(h)
		if rel == "" {
			continue
		}
		resp.Links[rel] = &huma.Link{
			OperationRef: href,
			Description:  fmt.Sprintf("Related: %s", rel),
		}
	}
}

func parseLinkHeader(h string) (rel, href string) {
	// Parse `<url>; rel="name"` format.
	parts := strings.SplitN(h, ";", 2)
	if len(parts) < 2 {
		return "", ""
	}
	href = strings.Trim(strings.TrimSpace(parts[0]), "<>")
	relPart := strings.TrimSpace(parts[1])
	if strings.HasPrefix(relPart, `rel="`) {
		rel = strings.Trim(relPart[4:], `"`)
	}
	return rel, href
}
