package changeset

import (
	"bytes"

	json "github.com/goccy/go-json"

	"github.com/reoring/changeset/internal/ordered"
)

// MarshalJSON encodes a snapshot of the changeset:
//
//	{"valid":false,"defaults":{...},"changes":{...},"modified":["age"],"errors":{...}}
//
// Object keys keep insertion order.
func (cs *Changeset) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"valid":`)
	if cs.valid {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
	buf.WriteString(`,"defaults":`)
	if err := writeObject(&buf, cs.defaults); err != nil {
		return nil, err
	}
	buf.WriteString(`,"changes":`)
	if err := writeObject(&buf, cs.changes); err != nil {
		return nil, err
	}
	buf.WriteString(`,"modified":`)
	mod, err := json.Marshal(nonNil(cs.modified.Keys()))
	if err != nil {
		return nil, err
	}
	buf.Write(mod)
	buf.WriteString(`,"errors":`)
	errs, err := cs.Errors().MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf.Write(errs)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeObject[V any](buf *bytes.Buffer, m *ordered.Map[string, V]) error {
	buf.WriteByte('{')
	var err error
	i := 0
	m.Each(func(k string, v V) bool {
		var kb, vb []byte
		if kb, err = json.Marshal(k); err != nil {
			return false
		}
		if vb, err = json.Marshal(v); err != nil {
			return false
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return true
	})
	if err != nil {
		return err
	}
	buf.WriteByte('}')
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
