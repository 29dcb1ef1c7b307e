package layout

import (
	"strings"

	"golang.org/x/net/html"
)

// Inspection helpers parse generated documents back into a node tree.
// They back tests and hosts that want to sanity-check output without
// string matching.

// StyleContent returns the text of the first <style> element.
func StyleContent(doc string) (string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	var found string
	walk(root, func(n *html.Node) {
		if found == "" && n.Type == html.ElementNode && n.Data == "style" && n.FirstChild != nil {
			found = n.FirstChild.Data
		}
	})
	return found, nil
}

// PageIDs returns the id attributes of page container elements, in
// document order.
func PageIDs(doc string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	var ids []string
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		if hasClass(n, "pdf-page") {
			if id, ok := attr(n, "id"); ok {
				ids = append(ids, id)
			}
		}
	})
	return ids, nil
}

// ExternalRefs lists URLs the document pulls in from outside: script
// sources, stylesheet links and image sources. A self-contained
// document returns none.
func ExternalRefs(doc string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	var refs []string
	walk(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.Data {
		case "script", "img", "iframe":
			if src, ok := attr(n, "src"); ok && src != "" {
				refs = append(refs, src)
			}
		case "link":
			if href, ok := attr(n, "href"); ok && href != "" {
				refs = append(refs, href)
			}
		}
	})
	return refs, nil
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	val, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(val) {
		if c == class {
			return true
		}
	}
	return false
}
