package analytics

import (
	"strings"
	"unicode"
)

var defaultPositive = []string{
	"gracias", "amor", "feliz", "genial", "bien", "bueno", "buena", "excelente",
	"jaja", "jajaja", "jajajaja", "lindo", "linda", "hermoso", "hermosa", "quiero",
	"perfecto", "increíble", "alegría", "besos", "beso", "abrazo",
	"felicidades", "súper", "guapo", "guapa", "love", "thanks", "thank", "great",
	"good", "happy", "awesome", "nice", "lol", "haha", "cool", "yay", "perfect",
}

var defaultNegative = []string{
	"odio", "mal", "malo", "mala", "triste", "enojado", "enojada", "horrible",
	"asco", "feo", "fea", "peor", "aburrido", "aburrida", "cansado",
	"cansada", "molesto", "molesta", "llorar", "mierda", "tonto", "tonta",
	"estúpido", "idiota", "hate", "sad", "bad", "awful", "angry", "terrible",
	"worst", "ugh", "annoying", "stupid", "boring", "tired", "cry",
}

// Lexicon is a closed word list used for additive sentiment scoring.
type Lexicon struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

// NewLexicon returns the built-in lexicon extended with extra words.
func NewLexicon(extraPositive, extraNegative []string) *Lexicon {
	l := &Lexicon{
		positive: make(map[string]struct{}),
		negative: make(map[string]struct{}),
	}
	for _, w := range append(append([]string(nil), defaultPositive...), extraPositive...) {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			l.positive[w] = struct{}{}
		}
	}
	for _, w := range append(append([]string(nil), defaultNegative...), extraNegative...) {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			l.negative[w] = struct{}{}
		}
	}
	return l
}

// Score returns +1 per positive token and -1 per negative token in text.
func (l *Lexicon) Score(text string) int {
	score := 0
	for _, tok := range Tokenize(text) {
		if _, ok := l.positive[tok]; ok {
			score++
		}
		if _, ok := l.negative[tok]; ok {
			score--
		}
	}
	return score
}

// Tokenize lower-cases text and splits it on runs of non-word characters.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}
