package bus

import (
	"strings"
	"unicode"
)

// Intent describes an Adapt-style keyword intent: every Requires vocabulary
// must be present, Optional ones are filled in when heard.
type Intent struct {
	Name     string
	Requires []string
	Optional []string
}

// Registrar registers vocabulary and intents on behalf of one skill. The host
// namespaces vocabulary with the alphanumeric form of the skill id, so slot
// values come back under prefixed keys.
type Registrar struct {
	client  *Client
	skillID string
	prefix  string
}

func NewRegistrar(c *Client, skillID string) *Registrar {
	return &Registrar{
		client:  c,
		skillID: skillID,
		prefix:  alnum(skillID),
	}
}

func alnum(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (r *Registrar) entity(vocab string) string {
	return r.prefix + vocab
}

// MessageType is the bus message type the host emits when name matches.
func (r *Registrar) MessageType(name string) string {
	return r.skillID + ":" + name
}

func (r *Registrar) RegisterVocab(vocab string, words ...string) error {
	for _, w := range words {
		err := r.client.Emit(Message{
			Type: "register_vocab",
			Data: map[string]any{
				"start":        w,
				"end":          r.entity(vocab),
				"entity_value": w,
				"entity_type":  r.entity(vocab),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RegisterRegex registers a regular expression whose named groups become
// vocabulary, e.g. (?P<IpAddress>...). Group names are prefixed like vocab.
func (r *Registrar) RegisterRegex(expr string) error {
	expr = strings.ReplaceAll(expr, "(?P<", "(?P<"+r.prefix)
	return r.client.Emit(Message{
		Type: "register_vocab",
		Data: map[string]any{"regex": expr},
	})
}

func (r *Registrar) RegisterIntent(in Intent, fn HandlerFunc) error {
	pairs := func(vocabs []string) [][]string {
		out := make([][]string, 0, len(vocabs))
		for _, v := range vocabs {
			out = append(out, []string{r.entity(v), r.entity(v)})
		}
		return out
	}

	err := r.client.Emit(Message{
		Type: "register_intent",
		Data: map[string]any{
			"name":         r.MessageType(in.Name),
			"requires":     pairs(in.Requires),
			"optional":     pairs(in.Optional),
			"at_least_one": [][]string{},
		},
	})
	if err != nil {
		return err
	}

	r.client.On(r.MessageType(in.Name), func(msg Message) {
		fn(r.Unprefix(msg))
	})
	return nil
}

// Unprefix returns msg with skill-prefixed slot keys replaced by bare
// vocabulary names.
func (r *Registrar) Unprefix(msg Message) Message {
	data := make(map[string]any, len(msg.Data))
	for k, v := range msg.Data {
		data[k] = v
	}
	for k, v := range msg.Data {
		if bare, ok := strings.CutPrefix(k, r.prefix); ok && bare != "" {
			data[bare] = v
		}
	}
	msg.Data = data
	return msg
}
