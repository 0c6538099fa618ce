// Package moderation provides the word filter applied to relayed messages.
// Matching is word-boundary and case-insensitive; each hit is replaced by a
// mask rune repeated to the word's length, so message layout is preserved and
// filtering is idempotent (masked text contains no dictionary words).
package moderation

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// defaultLexicon is the built-in word list. Deployments extend it via
// Options.Words or Options.WordlistFile; completeness is not a goal here.
var defaultLexicon = []string{
	"fuck", "fucking", "fucker", "motherfucker",
	"shit", "bullshit",
	"bitch", "bastard", "asshole", "cunt",
	"dick", "pussy", "whore", "slut",
	"nigger", "faggot", "retard",
}

// Options configures a Filter.
type Options struct {
	// Mask is the replacement rune; '*' when zero.
	Mask rune
	// Words are additional dictionary entries from configuration.
	Words []string
	// WordlistFile optionally names a file with one word per line.
	// Lines starting with '#' are ignored.
	WordlistFile string
}

// Filter censors dictionary words in text.
type Filter struct {
	re   *regexp.Regexp
	mask string
}

// New builds a Filter from the built-in lexicon plus opts.
func New(opts Options) (*Filter, error) {
	words := append([]string(nil), defaultLexicon...)
	words = append(words, opts.Words...)
	if opts.WordlistFile != "" {
		extra, err := readWordlist(opts.WordlistFile)
		if err != nil {
			return nil, err
		}
		words = append(words, extra...)
	}

	seen := make(map[string]struct{}, len(words))
	escaped := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		escaped = append(escaped, regexp.QuoteMeta(w))
	}
	if len(escaped) == 0 {
		return nil, fmt.Errorf("moderation: empty word list")
	}

	re, err := regexp.Compile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("moderation: compile pattern: %w", err)
	}
	mask := "*"
	if opts.Mask != 0 {
		mask = string(opts.Mask)
	}
	return &Filter{re: re, mask: mask}, nil
}

// Censor returns text with every dictionary word masked and the number of
// words that were masked.
func (f *Filter) Censor(text string) (string, int) {
	n := 0
	out := f.re.ReplaceAllStringFunc(text, func(m string) string {
		n++
		return strings.Repeat(f.mask, utf8.RuneCountInString(m))
	})
	return out, n
}

func readWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("moderation: wordlist: %w", err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("moderation: wordlist: %w", err)
	}
	return words, nil
}
