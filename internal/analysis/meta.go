package analysis

import (
	"regexp"
	"sort"
	"strings"

	"github.com/scrypster/murmur/pkg/types"
)

// maxTopWords bounds the top-words list in entry metadata.
const maxTopWords = 5

var (
	nonWordRe     = regexp.MustCompile(`[^\w\s]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	alphaWordRe   = regexp.MustCompile(`^[a-z]+$`)
	exclamationRe = regexp.MustCompile(`!+`)
	questionRe    = regexp.MustCompile(`\?+`)
	ellipsisRe    = regexp.MustCompile(`\.{3,}`)
)

// stopWords are excluded from word counts and top-word ranking.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"the a an and or but in on at to for of with by " +
			"is are was were be been being have has had do does did " +
			"will would could should may might must can i you he she " +
			"it we they me him her us them my your his its " +
			"our their this that these those am not so very just now " +
			"then here there when where why how all any both each few " +
			"more most other some such no nor only own same than too " +
			"dont wont cant isnt arent wasnt werent that") {
		stopWords[w] = struct{}{}
	}
}

// ExtractMeta computes word and punctuation statistics for raw entry text.
// Words shorter than four letters, stop words, and non-alphabetic tokens are
// ignored. Top words are ranked by frequency; ties keep first-seen order.
func ExtractMeta(rawText string) types.MetaData {
	clean := strings.ToLower(rawText)
	clean = nonWordRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(whitespaceRe.ReplaceAllString(clean, " "))

	freq := map[string]int{}
	var order []string
	wordCount := 0
	for _, w := range strings.Split(clean, " ") {
		if len(w) <= 3 || !alphaWordRe.MatchString(w) {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		wordCount++
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > maxTopWords {
		order = order[:maxTopWords]
	}
	if order == nil {
		order = []string{}
	}

	return types.MetaData{
		WordCount: wordCount,
		TopWords:  order,
		PunctuationFlags: types.PunctuationFlags{
			HasExclamation: exclamationRe.MatchString(rawText),
			HasQuestion:    questionRe.MatchString(rawText),
			HasEllipsis:    ellipsisRe.MatchString(rawText),
		},
	}
}
