package telegraph

import (
	"encoding/json"
	"strings"

	"golang.org/x/net/html"
)

// Node is one element of the page API content tree. Text nodes marshal as a
// bare string, element nodes as an object.
type Node struct {
	Text     string
	Tag      string
	Attrs    map[string]string
	Children []Node
}

type elementNode struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Children []Node            `json:"children,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	if n.Tag == "" {
		return json.Marshal(n.Text)
	}
	return json.Marshal(elementNode{Tag: n.Tag, Attrs: n.Attrs, Children: n.Children})
}

// HTMLToNodes converts an HTML fragment into the content-node form the page
// API expects.
func HTMLToNodes(fragment string) ([]Node, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	// html.Parse wraps fragments in html/head/body; content lives in body.
	body := findBody(root)
	if body == nil {
		return nil, nil
	}

	var nodes []Node
	for child := body.FirstChild; child != nil; child = child.NextSibling {
		if n, ok := toNode(child); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if body := findBody(child); body != nil {
			return body
		}
	}
	return nil
}

func toNode(n *html.Node) (Node, bool) {
	switch n.Type {
	case html.TextNode:
		if n.Data == "" {
			return Node{}, false
		}
		return Node{Text: n.Data}, true
	case html.ElementNode:
		node := Node{Tag: n.Data}
		if len(n.Attr) > 0 {
			node.Attrs = make(map[string]string, len(n.Attr))
			for _, a := range n.Attr {
				node.Attrs[a.Key] = a.Val
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if c, ok := toNode(child); ok {
				node.Children = append(node.Children, c)
			}
		}
		return node, true
	default:
		return Node{}, false
	}
}
