package misc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string
	Slots []int
}

func TestEncodeDecode(t *testing.T) {
	in := sample{Name: "standup", Slots: []int{1, 2, 3}}
	b, err := EncodeToBytes(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, DecodeFromBytes(b, &out))
	require.Equal(t, in, out)

	require.Error(t, DecodeFromBytes([]byte("garbage"), &out))
}

func TestRange(t *testing.T) {
	m := map[string]int{"c": 3, "a": 1, "b": 2}

	var keys []string
	var sum int
	for k, v := range Range(m) {
		keys = append(keys, k)
		sum += v
	}
	require.Equal(t, []string{"a", "b", "c"}, keys)
	require.Equal(t, 6, sum)

	keys = nil
	for k := range Range(m) {
		keys = append(keys, k)
		if k == "b" {
			break
		}
	}
	require.Equal(t, []string{"a", "b"}, keys)
}
