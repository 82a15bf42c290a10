package source

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"
)

var parserPool fastjson.ParserPool

func parseJSON(data []byte) ([][]string, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return PagesFromJSON(v)
}

// PagesFromJSON reads pages from one of these shapes:
//
//	["page one text", "page two text"]
//	[["page", "one"], ["page", "two"]]
//	{"pages": <either of the above>}
//
// The returned strings are copies and outlive the parser that produced v.
func PagesFromJSON(v *fastjson.Value) ([][]string, error) {
	if v.Type() == fastjson.TypeObject {
		v = v.Get("pages")
		if v == nil {
			return nil, errors.New(`json document has no "pages" field`)
		}
	}

	items, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("pages: %w", err)
	}

	pages := make([][]string, 0, len(items))
	for i, item := range items {
		switch item.Type() {
		case fastjson.TypeString:
			b, _ := item.StringBytes()
			pages = append(pages, Tokenize(string(b)))

		case fastjson.TypeArray:
			tokens, _ := item.Array()
			page := make([]string, 0, len(tokens))
			for j, tok := range tokens {
				b, err := tok.StringBytes()
				if err != nil {
					return nil, fmt.Errorf("page %d, token %d: %w", i, j, err)
				}
				if len(b) == 0 {
					continue
				}
				page = append(page, string(b))
			}
			pages = append(pages, page)

		default:
			return nil, fmt.Errorf("page %d: expected string or array, got %s", i, item.Type())
		}
	}
	return pages, nil
}
