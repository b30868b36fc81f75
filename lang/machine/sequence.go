package machine

import (
	"fmt"
	"strings"

	"github.com/mna/koto/lang/types"
)

// seqBuilder and strBuilder are VM-internal scratch values used between
// SequenceStart/StringStart and their matching ToList/ToTuple/Finish
// opcodes (spec §4.3 "Sequence/string building"). They are never visible to
// Koto code — the compiler always pairs Start with a Push/Finish sequence
// inside the same expression — so their Kind()/Display() are nominal only.
type seqBuilder struct{ items []types.Value }

func (*seqBuilder) Kind() types.Kind  { return types.KindList }
func (*seqBuilder) Display() string { return "<sequence builder>" }

type strBuilder struct{ b strings.Builder }

func (*strBuilder) Kind() types.Kind  { return types.KindStr }
func (*strBuilder) Display() string { return "<string builder>" }

func asSeqBuilder(v types.Value) (*seqBuilder, error) {
	b, ok := v.(*seqBuilder)
	if !ok {
		return nil, fmt.Errorf("internal: expected a sequence builder, got a %s value", v.Kind())
	}
	return b, nil
}

func asStrBuilder(v types.Value) (*strBuilder, error) {
	b, ok := v.(*strBuilder)
	if !ok {
		return nil, fmt.Errorf("internal: expected a string builder, got a %s value", v.Kind())
	}
	return b, nil
}

// valueLen reports the length CheckSizeEqual/CheckSizeMin test against, for
// every value shape the tuple/list destructuring patterns can match
// (spec §4.2 "fixed-arity and rest patterns").
func valueLen(v types.Value) (int, bool) {
	switch v := v.(type) {
	case *types.List:
		return len(v.Items), true
	case types.Tuple:
		return len(v.Items), true
	case types.TemporaryTuple:
		return v.Count, true
	case types.Str:
		return v.Len(), true
	case *types.Map:
		return v.Len(), true
	default:
		return 0, false
	}
}
