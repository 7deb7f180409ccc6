package inflect

import (
	"strconv"
	"strings"
)

// CombinedKey addresses one inflected form of a part of speech.
//
// Dimensional keys start with a comma and carry one "token," per axis in the
// part of speech's axis order, e.g. ",2,5," for two axes. A part of speech
// with no axes has the key ",". Singleton forms (forms outside the axis
// grid, such as an infinitive) are keyed by their bare decimal id.
type CombinedKey string

const keySep = ","

// Marker tokens used by two-axis grid views. They are carried through the
// codec untouched; substituting them is the caller's job.
const (
	MarkerX = "X"
	MarkerY = "Y"
)

// TokenKind tells what one position of a combined key holds.
type TokenKind int

const (
	// TokenValue selects a dimension value id.
	TokenValue TokenKind = iota
	// TokenUnset leaves the axis free.
	TokenUnset
	// TokenX is the grid column marker.
	TokenX
	// TokenY is the grid row marker.
	TokenY
)

// Token is one axis position of a combined key.
type Token struct {
	Kind  TokenKind
	Value int
}

// Val returns a token selecting value id v.
func Val(v int) Token { return Token{Kind: TokenValue, Value: v} }

// Unset returns a free token.
func Unset() Token { return Token{Kind: TokenUnset} }

// String renders the token as it appears inside a key.
func (t Token) String() string {
	switch t.Kind {
	case TokenValue:
		return strconv.Itoa(t.Value)
	case TokenX:
		return MarkerX
	case TokenY:
		return MarkerY
	default:
		return ""
	}
}

// Selection is one token per axis position.
type Selection []Token

// IsConcrete reports whether every position selects a value.
func (s Selection) IsConcrete() bool {
	for _, t := range s {
		if t.Kind != TokenValue {
			return false
		}
	}
	return true
}

// EncodeKey serializes sel. It does not know about axes; use Engine.Encode
// to check the selection against a part of speech.
func EncodeKey(sel Selection) CombinedKey {
	var b strings.Builder
	b.WriteString(keySep)
	for _, t := range sel {
		b.WriteString(t.String())
		b.WriteString(keySep)
	}
	return CombinedKey(b.String())
}

// DecodeKey parses a dimensional key. Singleton keys and garbage fail with
// ErrMalformedKey.
func DecodeKey(key CombinedKey) (Selection, error) {
	s := string(key)
	if s == keySep {
		return Selection{}, nil
	}
	if len(s) < 2 || !strings.HasPrefix(s, keySep) || !strings.HasSuffix(s, keySep) {
		return nil, keyError(key, "must start and end with %q", keySep)
	}
	parts := strings.Split(s[1:len(s)-1], keySep)
	sel := make(Selection, 0, len(parts))
	for i, p := range parts {
		switch p {
		case "":
			sel = append(sel, Unset())
		case MarkerX:
			sel = append(sel, Token{Kind: TokenX})
		case MarkerY:
			sel = append(sel, Token{Kind: TokenY})
		default:
			n, err := strconv.Atoi(p)
			if err != nil {
				return nil, keyError(key, "token %d (%q) is not a value id", i, p)
			}
			sel = append(sel, Val(n))
		}
	}
	return sel, nil
}

// SingletonKey returns the key of the singleton form with the given id.
func SingletonKey(id int) CombinedKey {
	return CombinedKey(strconv.Itoa(id))
}

// IsSingleton reports whether the key addresses a singleton form.
func (k CombinedKey) IsSingleton() bool {
	if k == "" || strings.HasPrefix(string(k), keySep) {
		return false
	}
	_, err := strconv.Atoi(string(k))
	return err == nil
}

// singletonID returns the id carried by a singleton key.
func (k CombinedKey) singletonID() (int, bool) {
	if !k.IsSingleton() {
		return 0, false
	}
	n, _ := strconv.Atoi(string(k))
	return n, true
}

// TokenCount returns the number of axis positions in a dimensional key, or
// -1 if the key does not parse.
func (k CombinedKey) TokenCount() int {
	sel, err := DecodeKey(k)
	if err != nil {
		return -1
	}
	return len(sel)
}

// appendUnset adds an empty token at the end of a dimensional key. Other
// keys come back unchanged.
func (k CombinedKey) appendUnset() CombinedKey {
	if _, err := DecodeKey(k); err != nil {
		return k
	}
	return k + keySep
}

// ResolveMarkers substitutes the X and Y markers of a partial key with the
// given value ids.
func ResolveMarkers(key CombinedKey, x, y int) (CombinedKey, error) {
	sel, err := DecodeKey(key)
	if err != nil {
		return "", err
	}
	out := make(Selection, len(sel))
	for i, t := range sel {
		switch t.Kind {
		case TokenX:
			out[i] = Val(x)
		case TokenY:
			out[i] = Val(y)
		default:
			out[i] = t
		}
	}
	return EncodeKey(out), nil
}
