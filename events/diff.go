package events

import (
	"github.com/cockroachdb/errors"
	"github.com/gabstv/go-bsdiff/pkg/bsdiff"
	"github.com/gabstv/go-bsdiff/pkg/bspatch"
)

// Diff turns one encoded revision of a day into the next. The first byte says how:
// 0 means the rest is the new revision verbatim, 1 means the rest is a bsdiff patch.
type Diff []byte

const (
	diffRaw   byte = 0
	diffPatch byte = 1
)

func generateDiff(prev, next []byte) (Diff, error) {
	if len(prev) == 0 {
		return append(Diff{diffRaw}, next...), nil
	}

	patch, err := bsdiff.Bytes(prev, next)
	if err != nil {
		return nil, errors.Wrap(err, "can not generate diff")
	}
	if len(patch) >= len(next) {
		return append(Diff{diffRaw}, next...), nil
	}
	return append(Diff{diffPatch}, patch...), nil
}

func applyDiff(prev []byte, d Diff) ([]byte, error) {
	if len(d) == 0 {
		return nil, errors.New("empty diff")
	}

	switch d[0] {
	case diffRaw:
		return d[1:], nil
	case diffPatch:
		next, err := bspatch.Bytes(prev, d[1:])
		if err != nil {
			return nil, errors.Wrap(err, "can not apply diff")
		}
		return next, nil
	default:
		return nil, errors.Errorf("invalid diff format %d", d[0])
	}
}
