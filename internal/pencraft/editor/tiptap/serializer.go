package tiptap

import (
	"encoding/json"

	"github.com/aisa-it/pencraft/internal/pencraft/editor/edtypes"
)

// Serialize сериализует документ в TipTap JSON.
func Serialize(doc *edtypes.Node) ([]byte, error) {
	return json.Marshal(ToTipTap(doc))
}

// ToTipTap преобразует документ в структуру TipTap без кодирования.
func ToTipTap(doc *edtypes.Node) TipTapDocument {
	tipTapDoc := TipTapDocument{
		Type:    "doc",
		Content: make([]TipTapNode, 0, len(doc.Content)),
	}
	for _, n := range doc.Content {
		tipTapDoc.Content = append(tipTapDoc.Content, serializeNode(n))
	}
	return tipTapDoc
}

func serializeNode(n *edtypes.Node) TipTapNode {
	node := TipTapNode{Type: n.Type.String()}

	switch n.Type {
	case edtypes.TextNode:
		node.Text = n.Text
		for _, m := range n.Marks {
			mark := TipTapMark{Type: m.Type.String()}
			if m.Type == edtypes.LinkMark {
				mark.Attrs = map[string]interface{}{"href": m.Href}
			}
			node.Marks = append(node.Marks, mark)
		}
		return node
	case edtypes.HeadingNode:
		node.Attrs = map[string]interface{}{"level": n.Attrs.Level}
	case edtypes.OrderedListNode:
		node.Attrs = map[string]interface{}{"start": max(n.Attrs.Start, 1)}
	case edtypes.CodeBlockNode:
		node.Attrs = map[string]interface{}{"language": n.Attrs.Language}
	case edtypes.ImageNode:
		node.Attrs = map[string]interface{}{"src": n.Attrs.Src}
		if n.Attrs.Alt != "" {
			node.Attrs["alt"] = n.Attrs.Alt
		}
	}

	for _, child := range n.Content {
		node.Content = append(node.Content, serializeNode(child))
	}
	return node
}
