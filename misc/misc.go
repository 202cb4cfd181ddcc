package misc

import (
	"bytes"
	"cmp"
	"encoding/gob"
	"iter"
	"slices"

	"github.com/cockroachdb/errors"
)

func EncodeToBytes(data any) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(data); err != nil {
		return nil, errors.Wrapf(err, "can not encode %T", data)
	}
	return buf.Bytes(), nil
}

func DecodeFromBytes(data []byte, a any) error {
	dec := gob.NewDecoder(bytes.NewReader(data))
	return errors.Wrapf(dec.Decode(a), "can not decode %T", a)
}

// Range iterates m in ascending key order.
func Range[K cmp.Ordered, V any](m map[K]V) iter.Seq2[K, V] {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	return func(yield func(K, V) bool) {
		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
