package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Item groups of a quiz document, in display order.
const (
	GroupGrammar      = "grammar"
	GroupVocab        = "vocab"
	GroupConversation = "conversation"
	GroupKeyPhrases   = "key_phrases"
)

// ItemGroups lists every item group.
var ItemGroups = []string{GroupGrammar, GroupVocab, GroupConversation, GroupKeyPhrases}

// ItemRef is an item or question identifier. Models emit both strings and numbers.
type ItemRef string

// UnmarshalJSON accepts a JSON string or number.
func (r *ItemRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ItemRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = ItemRef(n.String())
	return nil
}

// Meta is the document header.
type Meta struct {
	Mode    string `json:"mode,omitempty"`
	Type    string `json:"type,omitempty"`
	TitleEN string `json:"title_en,omitempty"`
}

// Item is a grammar, vocab, conversation or key-phrase entry. Fields vary per
// group, so items are kept as decoded objects.
type Item map[string]interface{}

// ID returns the item's identifier, or "" when absent.
func (i Item) ID() ItemRef {
	switch v := i["id"].(type) {
	case string:
		return ItemRef(v)
	case float64:
		return ItemRef(strconv.FormatFloat(v, 'f', -1, 64))
	case json.Number:
		return ItemRef(v.String())
	default:
		return ""
	}
}

// Items holds the four item groups.
type Items struct {
	Grammar      []Item `json:"grammar"`
	Vocab        []Item `json:"vocab"`
	Conversation []Item `json:"conversation"`
	KeyPhrases   []Item `json:"key_phrases"`
}

// Group returns the items of the named group.
func (i Items) Group(name string) []Item {
	switch name {
	case GroupGrammar:
		return i.Grammar
	case GroupVocab:
		return i.Vocab
	case GroupConversation:
		return i.Conversation
	case GroupKeyPhrases:
		return i.KeyPhrases
	}
	return nil
}

// QuizQuestion references items through Targets.
type QuizQuestion struct {
	ID       ItemRef                `json:"id,omitempty"`
	Targets  []ItemRef              `json:"targets"`
	Type     string                 `json:"type"`
	PromptEN string                 `json:"prompt_en,omitempty"`
	Payload  map[string]interface{} `json:"payload"`
	Answer   map[string]interface{} `json:"answer"`
}

// UIHints carries presentation preferences.
type UIHints struct {
	RecommendedOrder []ItemRef `json:"recommended_order"`
	ShowFirst        string    `json:"show_first,omitempty"`
	ExplainOnFail    *bool     `json:"explain_on_fail,omitempty"`
}

// QuizDocument is the typed view of a generated quiz document.
type QuizDocument struct {
	Meta    Meta           `json:"meta"`
	Items   Items          `json:"items"`
	Quiz    []QuizQuestion `json:"quiz"`
	UIHints UIHints        `json:"ui_hints"`
}

// Counts is the number of entries per group plus the quiz length.
type Counts struct {
	Grammar      int `json:"grammar"`
	Vocab        int `json:"vocab"`
	KeyPhrases   int `json:"key_phrases"`
	Conversation int `json:"conversation"`
	Quiz         int `json:"quiz"`
}

// Counts computes per-group totals.
func (d *QuizDocument) Counts() Counts {
	return Counts{
		Grammar:      len(d.Items.Grammar),
		Vocab:        len(d.Items.Vocab),
		KeyPhrases:   len(d.Items.KeyPhrases),
		Conversation: len(d.Items.Conversation),
		Quiz:         len(d.Quiz),
	}
}

// Normalize replaces nil collections with empty ones so the document
// serializes with arrays rather than nulls.
func (d *QuizDocument) Normalize() {
	if d.Items.Grammar == nil {
		d.Items.Grammar = []Item{}
	}
	if d.Items.Vocab == nil {
		d.Items.Vocab = []Item{}
	}
	if d.Items.Conversation == nil {
		d.Items.Conversation = []Item{}
	}
	if d.Items.KeyPhrases == nil {
		d.Items.KeyPhrases = []Item{}
	}
	if d.Quiz == nil {
		d.Quiz = []QuizQuestion{}
	}
	for i := range d.Quiz {
		if d.Quiz[i].Targets == nil {
			d.Quiz[i].Targets = []ItemRef{}
		}
		if d.Quiz[i].Payload == nil {
			d.Quiz[i].Payload = map[string]interface{}{}
		}
		if d.Quiz[i].Answer == nil {
			d.Quiz[i].Answer = map[string]interface{}{}
		}
	}
	if d.UIHints.RecommendedOrder == nil {
		d.UIHints.RecommendedOrder = []ItemRef{}
	}
}

// ParseQuizDocument decodes a document leniently. When the document does not
// fit the typed shape, an empty document is returned together with the error.
func ParseQuizDocument(data []byte) (*QuizDocument, error) {
	var doc QuizDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		empty := &QuizDocument{}
		empty.Normalize()
		return empty, err
	}
	doc.Normalize()
	return &doc, nil
}
