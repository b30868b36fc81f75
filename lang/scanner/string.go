package scanner

import (
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mna/koto/lang/token"
)

// beginString scans a string literal starting right after its opening quote
// has been consumed. If the literal contains no interpolation, it returns a
// single STRING token. If it hits a '$', it returns STRING_START with the
// prefix scanned so far, and records an interpState so the parser's next
// call(s) to Scan resume lexing either the following identifier (bare
// $ident) or the expression tokens up to the matching '}' (braced
// ${expr}); continueString then picks the scan back up afterwards.
func (s *Scanner) beginString(opening rune, tokVal *token.Value) token.Token {
	startOff := s.off - 1
	s.sb.Reset()

	var skipws bool
	for {
		cur := s.cur
		if (cur == '\n' && !skipws) || cur < 0 {
			s.error(startOff, "string literal not terminated")
			*tokVal = token.Value{Raw: string(s.src[startOff:s.off]), String: s.sb.String()}
			return token.STRING
		}
		if cur == opening {
			s.advance()
			*tokVal = token.Value{Raw: string(s.src[startOff:s.off]), String: s.sb.String()}
			return token.STRING
		}
		if cur == '$' && !skipws {
			s.advance()
			return s.startInterp(opening, startOff, tokVal)
		}
		s.advance()
		if cur == '\\' {
			skipws = s.escape()
		} else if !skipws || !isSpace(cur) {
			skipws = false
			s.writeStringLitRune(cur)
		}
	}
}

// startInterp is called right after the '$' that introduces an
// interpolation has been consumed.
func (s *Scanner) startInterp(opening rune, startOff int, tokVal *token.Value) token.Token {
	braced := false
	if s.cur == '{' {
		braced = true
		s.advance()
		s.parenDepth++
	}
	*tokVal = token.Value{Raw: string(s.src[startOff:s.off]), String: s.sb.String()}
	s.sb.Reset()
	if braced {
		s.interp = append(s.interp, interpState{quote: opening, braced: true})
	} else {
		// a bare $ident: the next token is the identifier itself, scanned
		// normally by scan(); once it's been emitted, string scanning resumes
		// automatically (see afterIdentResume in scan()'s IDENT branch).
		s.afterIdentResume = opening
	}
	return token.STRING_START
}

// continueString resumes scanning a string literal's content after an
// interpolated expression has been fully consumed, emitting STRING_PART for
// the text up to the next '$' or the literal's close, or STRING_END at the
// close.
func (s *Scanner) continueString(opening rune, tokVal *token.Value) token.Token {
	startOff := s.off
	s.sb.Reset()

	var skipws bool
	for {
		cur := s.cur
		if (cur == '\n' && !skipws) || cur < 0 {
			s.error(startOff, "string literal not terminated")
			*tokVal = token.Value{Raw: string(s.src[startOff:s.off]), String: s.sb.String()}
			return token.STRING_END
		}
		if cur == opening {
			s.advance()
			*tokVal = token.Value{Raw: string(s.src[startOff:s.off]), String: s.sb.String()}
			return token.STRING_END
		}
		if cur == '$' && !skipws {
			s.advance()
			*tokVal = token.Value{Raw: string(s.src[startOff:s.off]), String: s.sb.String()}
			return s.startInterpPart(opening, tokVal)
		}
		s.advance()
		if cur == '\\' {
			skipws = s.escape()
		} else if !skipws || !isSpace(cur) {
			skipws = false
			s.writeStringLitRune(cur)
		}
	}
}

func (s *Scanner) startInterpPart(opening rune, tokVal *token.Value) token.Token {
	braced := false
	if s.cur == '{' {
		braced = true
		s.advance()
		s.parenDepth++
	}
	if braced {
		s.interp = append(s.interp, interpState{quote: opening, braced: true})
	} else {
		s.afterIdentResume = opening
	}
	return token.STRING_PART
}

func isSpace(rn rune) bool {
	return rn == ' ' || rn == '\t' || rn == '\r'
}

var simpleEscapes = [...]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'$':  '$',
	'\'': '\'',
	'"':  '"',
	'\n': '\n',
}

// escape parses an escape sequence, expecting the leading backslash already
// consumed. Returns true if the escape was \z, meaning following whitespace
// should be skipped in the decoded value.
func (s *Scanner) escape() (skipws bool) {
	startOff := s.off - 1

	if cur := s.cur; s.advanceIf('a', 'b', 'f', 'n', 'r', 't', 'v', 'z', '\\', '$', '"', '\'', '\n') {
		if cur != 'z' {
			s.writeStringLitRune(rune(simpleEscapes[cur]))
		}
		return cur == 'z'
	}

	illegalOrIncomplete := func() {
		if s.cur < 0 {
			s.error(startOff, "escape sequence not terminated")
			return
		}
		s.errorf(s.off, "illegal character %#U in escape sequence", s.cur)
	}

	var max, rn uint32
	switch {
	case isDecimal(s.cur):
		max = 255
		rn = uint32(digitVal(s.cur))
		s.advance()
		for i := 0; i < 2 && isDecimal(s.cur); i++ {
			rn = rn*10 + uint32(digitVal(s.cur))
			s.advance()
		}
	case s.advanceIf('x'):
		max = 255
		for i := 0; i < 2; i++ {
			if !isHexadecimal(s.cur) {
				illegalOrIncomplete()
				return false
			}
			rn = rn*16 + uint32(digitVal(s.cur))
			s.advance()
		}
	case s.advanceIf('u'):
		max = unicode.MaxRune
		if s.advanceIf('{') {
			var count int
			for isHexadecimal(s.cur) {
				rn = rn*16 + uint32(digitVal(s.cur))
				s.advance()
				count++
			}
			if !s.advanceIf('}') {
				illegalOrIncomplete()
				return false
			}
			if count > 8 {
				s.error(startOff, "escape sequence has too many hexadecimal digits")
				return false
			}
		} else {
			for i := 0; i < 4; i++ {
				if !isHexadecimal(s.cur) {
					illegalOrIncomplete()
					return false
				}
				rn = rn*16 + uint32(digitVal(s.cur))
				s.advance()
			}
		}
	default:
		msg := "unknown escape sequence"
		if s.cur < 0 {
			msg = "escape sequence not terminated"
		}
		s.error(startOff, msg)
		return false
	}

	if rn > max {
		msg := "escape sequence is invalid Unicode code point"
		if max == 255 {
			msg = "escape sequence is invalid byte value"
		}
		s.error(startOff, msg)
		return false
	}
	if utf16.IsSurrogate(rune(rn)) {
		s.writeStringLitRune(utf8.RuneError)
		return false
	}
	s.writeStringLitRune(rune(rn))
	return false
}

func (s *Scanner) writeStringLitRune(rn rune) {
	s.sb.WriteRune(rn)
}

func digitVal(rn rune) int {
	switch {
	case '0' <= rn && rn <= '9':
		return int(rn - '0')
	case 'a' <= rn && rn <= 'f':
		return int(rn - 'a' + 10)
	case 'A' <= rn && rn <= 'F':
		return int(rn - 'A' + 10)
	}
	return 16
}
