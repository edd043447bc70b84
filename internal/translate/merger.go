package translate

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// MergeResult is the outcome of reinserting translated words into markup.
// Truncated reports that the translated stream ran short of the markup's
// total word demand; the merge still succeeds and trailing nodes simply
// receive shorter (possibly empty) content.
type MergeResult struct {
	HTML      string
	WordsUsed int
	Truncated bool
}

// MergeTranslation walks the markup's text nodes in document order and
// substitutes each node's word span with the next unconsumed slice of the
// translated stream. Tags, attributes and the exact leading/trailing
// whitespace of every text node are preserved; whitespace-only text nodes
// are left untouched and do not advance the cursor.
func MergeTranslation(markup, translated string) (*MergeResult, error) {
	words := strings.Fields(translated)

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	cursor := 0
	truncated := false
	for _, n := range nodes {
		mergeNode(n, words, &cursor, &truncated)
	}

	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			return nil, fmt.Errorf("render markup: %w", err)
		}
	}
	return &MergeResult{HTML: sb.String(), WordsUsed: cursor, Truncated: truncated}, nil
}

// ExtractText returns the visible words of the markup in document order,
// joined by single spaces. This is the string handed to the translator so
// the merged result lines up positionally with the original nodes.
func ExtractText(markup string) (string, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}
	var words []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(words, " "), nil
}

func mergeNode(n *html.Node, words []string, cursor *int, truncated *bool) {
	if n.Type == html.TextNode {
		n.Data = replaceWords(n.Data, words, cursor, truncated)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		mergeNode(c, words, cursor, truncated)
	}
}

func replaceWords(data string, words []string, cursor *int, truncated *bool) string {
	trimmedLeft := strings.TrimLeftFunc(data, unicode.IsSpace)
	leading := data[:len(data)-len(trimmedLeft)]
	trimmed := strings.TrimRightFunc(trimmedLeft, unicode.IsSpace)
	trailing := trimmedLeft[len(trimmed):]

	if trimmed == "" {
		return data
	}

	demand := len(strings.Fields(trimmed))
	end := *cursor + demand
	if end > len(words) {
		end = len(words)
		*truncated = true
	}
	slice := words[*cursor:end]
	*cursor = end

	return leading + strings.Join(slice, " ") + trailing
}
