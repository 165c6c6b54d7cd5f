// Package message renders a countdown into a "blocks" webhook payload.
//
// The layout follows the messaging platform's block convention: a header
// block, section blocks carrying markdown text or field pairs, and a
// context block for the footer.
package message

const (
	BlockHeader  = "header"
	BlockSection = "section"
	BlockContext = "context"

	TextPlain    = "plain_text"
	TextMarkdown = "mrkdwn"
)

// Payload is the JSON document posted to the webhook.
type Payload struct {
	// Text is the fallback shown by clients that do not render blocks
	// (push notifications, for example).
	Text   string  `json:"text,omitempty"`
	Blocks []Block `json:"blocks"`
}

// Block is one display block. Which of Text/Fields/Elements is set depends
// on Type.
type Block struct {
	Type     string       `json:"type"`
	Text     *TextObject  `json:"text,omitempty"`
	Fields   []TextObject `json:"fields,omitempty"`
	Elements []TextObject `json:"elements,omitempty"`
}

type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func Header(text string) Block {
	return Block{Type: BlockHeader, Text: &TextObject{Type: TextPlain, Text: text, Emoji: true}}
}

func Section(markdown string) Block {
	return Block{Type: BlockSection, Text: &TextObject{Type: TextMarkdown, Text: markdown}}
}

func Fields(markdown ...string) Block {
	b := Block{Type: BlockSection, Fields: make([]TextObject, 0, len(markdown))}
	for _, m := range markdown {
		b.Fields = append(b.Fields, TextObject{Type: TextMarkdown, Text: m})
	}
	return b
}

func Context(markdown ...string) Block {
	b := Block{Type: BlockContext, Elements: make([]TextObject, 0, len(markdown))}
	for _, m := range markdown {
		b.Elements = append(b.Elements, TextObject{Type: TextMarkdown, Text: m})
	}
	return b
}
