// Package whitelist holds the named input patterns shared by server-side validation and
// the web client. The table is fixed at compile time and read-only.
package whitelist

import (
	"regexp"
)

// Entry is one named pattern and the error code reported when a value fails it.
type Entry struct {
	Type    string `json:"type"`
	Pattern string `json:"pattern"`
	Error   string `json:"error"`
}

// Pattern names.
const (
	Num      = "NUM"
	NumSym   = "NUMSYM"
	Alpha    = "ALPHA"
	Text     = "TEXT"
	Name     = "NAME"
	Address  = "ADDRESS"
	Desc     = "DESC"
	Filename = "FILENAME"
	AlphaNum = "ALPHANUM"
	Username = "USERNAME"
	Password = "PASSWORD"
)

// freeText covers descriptions and passwords: letters, digits and common punctuation.
const freeText = "^[A-Za-z0-9' ,!:;&/\"£%=@#><~_`\\]\\?\\[\\(\\)\\$\\*\\\\\\.\\+\\|-]+$"

var entries = []Entry{
	{Type: Num, Pattern: `^[0-9]+$`, Error: "INVALID_NUM"},
	{Type: NumSym, Pattern: `^[0-9\.\+ /\\-]+$`, Error: "INVALID_NUMSYM"},
	{Type: Alpha, Pattern: `^[A-Za-z ]+$`, Error: "INVALID_ALPHA"},
	{Type: Text, Pattern: `^[A-Za-z0-9 /]+$`, Error: "INVALID_TEXT"},
	{Type: Name, Pattern: `^[A-Za-z' ]+$`, Error: "INVALID_NAME"},
	{Type: Address, Pattern: `^[A-Za-z0-9' ,\.-]+$`, Error: "INVALID_ADDRESS"},
	{Type: Desc, Pattern: freeText, Error: "INVALID_DESCRIPTION"},
	{Type: Filename, Pattern: `^[A-Za-z0-9' _\(\)\.-]+$`, Error: "INVALID_FILENAME"},
	{Type: AlphaNum, Pattern: `^[0-9A-Za-z ]+$`, Error: "INVALID_ALPHANUM"},
	{Type: Username, Pattern: `^[A-Za-z0-9_-]+$`, Error: "INVALID_USERNAME"},
	{Type: Password, Pattern: freeText, Error: "INVALID_PASSWORD"},
}

var compiled = compile(entries)

func compile(list []Entry) map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(list))
	for _, e := range list {
		out[e.Type] = regexp.MustCompile(e.Pattern)
	}
	return out
}

// All returns a copy of every entry in declaration order.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Get returns the entry for typ, or the zero Entry when typ is unknown.
func Get(typ string) Entry {
	for _, e := range entries {
		if e.Type == typ {
			return e
		}
	}
	return Entry{}
}

// Match reports whether value satisfies the named pattern. Empty values always match;
// required-ness is checked separately. Unknown pattern names never match.
func Match(typ, value string) bool {
	re, ok := compiled[typ]
	if !ok {
		return false
	}
	if value == "" {
		return true
	}
	return re.MatchString(value)
}
