package blocks

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"pagefiber-be/internal/pkg/logger"
)

const decodeModule = "BlockDecoder"

// flexInt accepts a JSON number, a numeric string or null
type flexInt struct {
	v *int
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		f.v = &n
		return nil
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(fl)
		f.v = &n
	}
	return nil
}

// flexBool accepts true/false, "true"/"false" or null
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseBool(s)
	if err != nil {
		*f = false
		return nil
	}
	*f = flexBool(v)
	return nil
}

// UnmarshalJSON tolerates string encoded positions
func (a *Annotation) UnmarshalJSON(data []byte) error {
	type rawAnnotation Annotation
	var aux struct {
		rawAnnotation
		Start flexInt `json:"start"`
		End   flexInt `json:"end"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Annotation(aux.rawAnnotation)
	a.Start = aux.Start.v
	a.End = aux.End.v
	return nil
}

// UnmarshalJSON decodes a block leniently. Annotations and children that
// fail to decode are dropped one by one instead of failing the whole block;
// listType spellings are canonicalised and the camelCase mediaType legacy
// field is accepted.
func (b *Block) UnmarshalJSON(data []byte) error {
	type rawBlock Block
	var aux struct {
		rawBlock
		ListType      string            `json:"listType"`
		MediaTypeAlt  string            `json:"mediaType"`
		Annotations   []json.RawMessage `json:"annotations"`
		Children      []json.RawMessage `json:"children"`
		Checked       flexBool          `json:"checked"`
		IsListItem    flexBool          `json:"isListItem"`
		HasRowHeader  flexBool          `json:"hasRowHeader"`
		HasColumnHead flexBool          `json:"hasColumnHeader"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*b = Block(aux.rawBlock)
	b.ListType = ParseListType(aux.ListType)
	if b.MediaType == "" {
		b.MediaType = aux.MediaTypeAlt
	}
	b.Checked = bool(aux.Checked)
	b.IsListItem = bool(aux.IsListItem)
	b.HasRowHeader = bool(aux.HasRowHeader)
	b.HasColumnHeader = bool(aux.HasColumnHead)

	b.Annotations = nil
	if aux.Annotations != nil {
		b.Annotations = make([]Annotation, 0, len(aux.Annotations))
		for _, raw := range aux.Annotations {
			var a Annotation
			if err := json.Unmarshal(raw, &a); err != nil {
				continue
			}
			b.Annotations = append(b.Annotations, a)
		}
	}

	b.Children = nil
	if aux.Children != nil {
		b.Children = make([]Block, 0, len(aux.Children))
		for _, raw := range aux.Children {
			var child Block
			if err := json.Unmarshal(raw, &child); err != nil {
				continue
			}
			b.Children = append(b.Children, child)
		}
	}

	return nil
}

// ParseTree converts serialized content into a block tree. It accepts a JSON
// array of blocks, an object envelope ({"blocks": [...]}, {"results": [...]},
// {"content": [...]}) or a JSON string wrapping either. Anything it cannot
// understand yields an empty tree; it never fails.
func ParseTree(raw string, log logger.ILogger) []Block {
	return ParseTreeBytes([]byte(raw), log)
}

// ParseTreeBytes is ParseTree for byte input
func ParseTreeBytes(raw []byte, log logger.ILogger) []Block {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return parseTree(bytes.TrimSpace(raw), log, 0)
}

func parseTree(raw []byte, log logger.ILogger, depth int) []Block {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Block{}
	}

	switch raw[0] {
	case '"':
		// double encoded content, unwrap once
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil || depth > 0 {
			log.Warn(decodeModule, "Unparseable string content, using empty tree", map[string]interface{}{"error": errString(err)})
			return []Block{}
		}
		return parseTree(bytes.TrimSpace([]byte(inner)), log, depth+1)

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			log.Warn(decodeModule, "Unparseable block array, using empty tree", map[string]interface{}{"error": err.Error()})
			return []Block{}
		}
		return decodeItems(items, log)

	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(raw, &envelope); err != nil {
			log.Warn(decodeModule, "Unparseable block object, using empty tree", map[string]interface{}{"error": err.Error()})
			return []Block{}
		}
		for _, key := range []string{"blocks", "results", "content", "children"} {
			if inner, ok := envelope[key]; ok {
				return parseTree(bytes.TrimSpace(inner), log, depth)
			}
		}
		if _, ok := envelope["type"]; ok {
			return decodeItems([]json.RawMessage{raw}, log)
		}
	}

	log.Warn(decodeModule, "Content is not a block tree, using empty tree", map[string]interface{}{"length": len(raw)})
	return []Block{}
}

func decodeItems(items []json.RawMessage, log logger.ILogger) []Block {
	tree := make([]Block, 0, len(items))
	for i, item := range items {
		var b Block
		if err := json.Unmarshal(item, &b); err != nil {
			log.Warn(decodeModule, "Skipping undecodable block", map[string]interface{}{
				"index": i,
				"error": err.Error(),
			})
			continue
		}
		tree = append(tree, b)
	}
	return tree
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
