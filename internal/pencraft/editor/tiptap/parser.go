package tiptap

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/aisa-it/pencraft/internal/pencraft/editor"
	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
)

// ParseJSON парсит JSON контент TipTap редактора в дерево документа.
// Неизвестные типы нод и меток пропускаются с предупреждением в лог.
func ParseJSON(r io.Reader) (*edtypes.Node, error) {
	var tipTapDoc TipTapDocument
	if err := json.NewDecoder(r).Decode(&tipTapDoc); err != nil {
		return nil, err
	}

	doc := edtypes.NewDocument()
	for _, node := range tipTapDoc.Content {
		if n := parseNode(node); n != nil {
			doc.Content = append(doc.Content, n)
		}
	}
	if len(doc.Content) == 0 {
		doc.Content = append(doc.Content, edtypes.Paragraph())
	}
	doc.Normalize()
	return doc, nil
}

// parseNode парсит отдельную ноду TipTap.
func parseNode(node TipTapNode) *edtypes.Node {
	nodeType, ok := edtypes.ParseNodeType(node.Type)
	if !ok || nodeType == edtypes.DocNode {
		slog.Warn("Unknown node type", "type", node.Type)
		return nil
	}

	n := &edtypes.Node{Type: nodeType}
	switch nodeType {
	case edtypes.TextNode:
		n.Text = node.Text
		n.Marks = parseMarks(node.Marks)
		return n
	case edtypes.HeadingNode:
		n.Attrs.Level = min(max(attrNumber(node.Attrs, "level"), 1), 6)
	case edtypes.OrderedListNode:
		n.Attrs.Start = max(attrNumber(node.Attrs, "start"), 1)
	case edtypes.CodeBlockNode:
		n.Attrs.Language = attrOf[string](node.Attrs, "language")
		if n.Attrs.Language == "" {
			n.Attrs.Language = editor.DefaultLanguage
		}
	case edtypes.ImageNode:
		n.Attrs.Src = attrOf[string](node.Attrs, "src")
		n.Attrs.Alt = attrOf[string](node.Attrs, "alt")
		if n.Attrs.Src == "" {
			return nil
		}
	}

	for _, child := range node.Content {
		if c := parseNode(child); c != nil {
			n.Content = append(n.Content, c)
		}
	}
	return n
}

func parseMarks(marks []TipTapMark) []edtypes.Mark {
	var res []edtypes.Mark
	for _, m := range marks {
		markType, ok := edtypes.ParseMarkType(m.Type)
		if !ok {
			slog.Warn("Unknown mark type", "type", m.Type)
			continue
		}
		mark := edtypes.Mark{Type: markType}
		if markType == edtypes.LinkMark {
			mark.Href = attrOf[string](m.Attrs, "href")
			if mark.Href == "" {
				continue
			}
		}
		res = append(res, mark)
	}
	return edtypes.SortMarks(res)
}
