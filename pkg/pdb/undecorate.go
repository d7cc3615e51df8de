package pdb

import (
	"strings"
)

// Undecorate returns the qualified name encoded in an MSVC decorated symbol
// name. Only the name is recovered; calling convention, return type and
// parameter encodings are dropped. Names that are not decorated, or that use
// encodings this function does not understand, are returned unchanged.
func Undecorate(name string) string {
	switch {
	case strings.HasPrefix(name, "__imp_"):
		return Undecorate(name[len("__imp_"):])
	case strings.HasPrefix(name, "?"):
		if s, ok := undecorateCXX(name); ok {
			return s
		}
	case strings.HasPrefix(name, "_"), strings.HasPrefix(name, "@"):
		// _name@N (stdcall) and @name@N (fastcall).
		if at := strings.LastIndexByte(name, '@'); at > 1 && isDigits(name[at+1:]) {
			return name[1:at]
		}
	}
	return name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Special names introduced by "?" followed by a code.
var specialNames = map[string]string{
	"2": "operator new", "3": "operator delete", "4": "operator=",
	"5": "operator>>", "6": "operator<<", "7": "operator!",
	"8": "operator==", "9": "operator!=", "A": "operator[]",
	"C": "operator->", "D": "operator*", "E": "operator++",
	"F": "operator--", "G": "operator-", "H": "operator+",
	"I": "operator&", "J": "operator->*", "K": "operator/",
	"L": "operator%", "M": "operator<", "N": "operator<=",
	"O": "operator>", "P": "operator>=", "Q": "operator,",
	"R": "operator()", "S": "operator~", "T": "operator^",
	"U": "operator|", "V": "operator&&", "W": "operator||",
	"X": "operator*=", "Y": "operator+=", "Z": "operator-=",
	"_0": "operator/=", "_1": "operator%=", "_2": "operator>>=",
	"_3": "operator<<=", "_4": "operator&=", "_5": "operator|=",
	"_6": "operator^=", "_7": "`vftable'", "_8": "`vbtable'",
	"_E": "`vector deleting destructor'", "_G": "`scalar deleting destructor'",
	"_U": "operator new[]", "_V": "operator delete[]",
}

type undecorator struct {
	in       string
	pos      int
	backrefs []string
}

// undecorateCXX decodes "?name@scope@...@@<encoding>".
func undecorateCXX(name string) (string, bool) {
	u := &undecorator{in: name, pos: 1}

	var (
		unqualified string
		ctor, dtor  bool
	)
	if u.peek() == '?' {
		u.pos++
		switch code := u.next(); code {
		case '0':
			ctor = true
		case '1':
			dtor = true
		case '$':
			return "", false // template instantiation
		case '_':
			special, ok := specialNames["_"+string(u.next())]
			if !ok {
				return "", false
			}
			unqualified = special
		default:
			special, ok := specialNames[string(code)]
			if !ok {
				return "", false
			}
			unqualified = special
		}
	} else {
		frag, ok := u.fragment()
		if !ok {
			return "", false
		}
		unqualified = frag
	}

	scope, ok := u.scope()
	if !ok {
		return "", false
	}
	if ctor || dtor {
		if len(scope) == 0 {
			return "", false
		}
		unqualified = scope[0]
		if dtor {
			unqualified = "~" + unqualified
		}
	}

	parts := make([]string, 0, len(scope)+1)
	for i := len(scope) - 1; i >= 0; i-- {
		parts = append(parts, scope[i])
	}
	parts = append(parts, unqualified)
	return strings.Join(parts, "::"), true
}

// scope reads enclosing names, innermost first, up to the terminating '@'.
func (u *undecorator) scope() ([]string, bool) {
	var names []string
	for {
		switch c := u.peek(); {
		case c == 0:
			return nil, false
		case c == '@':
			u.pos++
			return names, true
		case c >= '0' && c <= '9':
			u.pos++
			idx := int(c - '0')
			if idx >= len(u.backrefs) {
				return nil, false
			}
			names = append(names, u.backrefs[idx])
		case c == '?':
			u.pos++
			if u.peek() != 'A' {
				return nil, false
			}
			// ?A0x<hash>@ is an anonymous namespace.
			if _, ok := u.fragment(); !ok {
				return nil, false
			}
			names = append(names, "`anonymous namespace'")
		default:
			frag, ok := u.fragment()
			if !ok {
				return nil, false
			}
			names = append(names, frag)
		}
	}
}

// fragment reads an '@'-terminated name and records it for back references.
func (u *undecorator) fragment() (string, bool) {
	end := strings.IndexByte(u.in[u.pos:], '@')
	if end <= 0 {
		return "", false
	}
	frag := u.in[u.pos : u.pos+end]
	u.pos += end + 1
	if len(u.backrefs) < 10 {
		u.backrefs = append(u.backrefs, frag)
	}
	return frag, true
}

func (u *undecorator) peek() byte {
	if u.pos >= len(u.in) {
		return 0
	}
	return u.in[u.pos]
}

func (u *undecorator) next() byte {
	c := u.peek()
	if c != 0 {
		u.pos++
	}
	return c
}
