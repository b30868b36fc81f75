package scanner

import (
	"fmt"
	"io"
	"sort"

	"github.com/mna/koto/lang/token"
)

// Error is a single lexical or syntax error tied to a resolved source
// position. This mirrors go/scanner.Error, adapted to this package's
// token.Position (a line/col pair, not a byte offset).
type Error struct {
	Pos token.Position
	Msg string
}

func (e Error) Error() string {
	if e.Pos.Filename != "" || e.Pos.IsValid() {
		return e.Pos.String() + ": " + e.Msg
	}
	return e.Msg
}

// ErrorList accumulates Errors in the order they are reported and can sort
// and deduplicate them before being surfaced as a single error.
type ErrorList []*Error

// Add appends an error at pos.
func (p *ErrorList) Add(pos token.Position, msg string) {
	*p = append(*p, &Error{Pos: pos, Msg: msg})
}

// Reset truncates the list to zero errors.
func (p *ErrorList) Reset() { *p = (*p)[0:0] }

func (p ErrorList) Len() int      { return len(p) }
func (p ErrorList) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p ErrorList) Less(i, j int) bool {
	a, b := p[i].Pos, p[j].Pos
	if a.Filename != b.Filename {
		return a.Filename < b.Filename
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Column < b.Column
}

// Sort orders the list by filename, then line, then column.
func (p ErrorList) Sort() { sort.Sort(p) }

// RemoveMultiples sorts the list and removes all but the first error
// reported for a given source line.
func (p *ErrorList) RemoveMultiples() {
	sort.Sort(p)
	var last token.Position
	i := 0
	for _, e := range *p {
		if e.Pos.Filename != last.Filename || e.Pos.Line != last.Line {
			last = e.Pos
			(*p)[i] = e
			i++
		}
	}
	*p = (*p)[0:i]
}

func (p ErrorList) Error() string {
	switch len(p) {
	case 0:
		return "no errors"
	case 1:
		return p[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", p[0], len(p)-1)
	}
}

// Err returns p as an error if it holds at least one Error, else nil.
func (p ErrorList) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Unwrap allows errors.Is/As to inspect each individual Error.
func (p ErrorList) Unwrap() []error {
	errs := make([]error, len(p))
	for i, e := range p {
		errs[i] = e
	}
	return errs
}

// PrintError prints err to w, printing one line per Error if err is an
// ErrorList.
func PrintError(w io.Writer, err error) {
	if list, ok := err.(ErrorList); ok {
		for _, e := range list {
			fmt.Fprintf(w, "%s\n", e)
		}
		return
	}
	if err != nil {
		fmt.Fprintf(w, "%s\n", err)
	}
}
