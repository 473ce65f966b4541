package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer splits Latin prose into word and punctuation tokens.
// Words keep their original case; each punctuation mark is its own token.
// The enclitic -que is split from its host word and emitted after it as
// "-que", unless the word is a lexicalized -que form (atque, quisque, ...).
type Tokenizer struct {
	enclitics  []string
	exceptions map[string]struct{}
}

// NewTokenizer creates a tokenizer splitting the given enclitics.
func NewTokenizer(enclitics []string) *Tokenizer {
	t := &Tokenizer{exceptions: make(map[string]struct{}, len(queExceptions))}
	for _, e := range enclitics {
		e = strings.ToLower(strings.TrimPrefix(e, "-"))
		if e != "" {
			t.enclitics = append(t.enclitics, e)
		}
	}
	for _, w := range queExceptions {
		t.exceptions[w] = struct{}{}
	}
	return t
}

// NewLatinTokenizer returns a tokenizer with the default enclitic set.
func NewLatinTokenizer() *Tokenizer {
	return NewTokenizer([]string{"que"})
}

// Tokenize splits text into tokens in reading order.
func (t *Tokenizer) Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		if current.Len() == 0 {
			return
		}
		tokens = t.appendWord(tokens, current.String())
		current.Reset()
	}

	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.Mn, r):
			current.WriteRune(r)
		case r == '-' && current.Len() > 0:
			current.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			flush()
			if unicode.IsPunct(r) || unicode.IsSymbol(r) {
				tokens = append(tokens, string(r))
			}
		}
	}
	flush()

	return tokens
}

// appendWord cleans a raw word and splits off an enclitic.
func (t *Tokenizer) appendWord(tokens []string, word string) []string {
	trailing := len(word) - len(strings.TrimRight(word, "-"))
	word = strings.Trim(word, "-")
	for strings.Contains(word, "--") {
		word = strings.ReplaceAll(word, "--", "-")
	}
	if word != "" {
		host, enclitic := t.splitEnclitic(word)
		tokens = append(tokens, host)
		if enclitic != "" {
			tokens = append(tokens, "-"+enclitic)
		}
	}
	// A dangling hyphen ("semi- ") is punctuation of its own.
	if trailing > 0 {
		tokens = append(tokens, "-")
	}
	return tokens
}

func (t *Tokenizer) splitEnclitic(word string) (string, string) {
	lower := strings.ToLower(word)
	if _, ok := t.exceptions[lower]; ok {
		return word, ""
	}
	for _, enc := range t.enclitics {
		if !strings.HasSuffix(lower, enc) {
			continue
		}
		host := word[:len(word)-len(enc)]
		// Hosts shorter than three letters are lexical (usque, neque).
		if utf8.RuneCountInString(host) < 3 || strings.HasSuffix(host, "-") {
			continue
		}
		return host, word[len(host):]
	}
	return word, ""
}

// queExceptions are words ending in -que that are not host + enclitic.
var queExceptions = []string{
	"absque", "atque", "denique", "itaque", "namque", "neque", "quoque",
	"quinque", "quisque", "quaeque", "quodque", "quidque", "quicque",
	"cuiusque", "cuique", "quemque", "quamque", "quaque", "quibusque",
	"quorumque", "quarumque", "quosque", "quasque", "quique",
	"uterque", "utraque", "utrumque", "utriusque", "utrique", "utrosque",
	"utrasque", "utrisque", "utroque", "utramque",
	"plerique", "pleraque", "plerumque", "plerosque", "plerasque", "plerisque",
	"undique", "utique", "ubique", "usque", "quandoque", "quousque",
	"aeque", "oblique", "torque", "utcumque", "quacumque", "quocumque",
	"coque", "decoque", "relinque", "linque", "seque",
}
