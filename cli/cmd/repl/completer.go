package repl

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/Wafelack/mess/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "edit", "clear", "quit"}

// isWordBoundary reports whether r ends a completable word. Identifiers
// may contain operators and hyphens, so only whitespace and the list
// delimiters separate words.
func isWordBoundary(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '\'', '"':
		return true
	}

	return unicode.IsSpace(r)
}

// wordBounds returns the word under the cursor and its byte offsets in
// input. The word is empty when the cursor sits between two boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// inCallHead reports whether the word starting at wordStart is the first
// word of a list, where only callable names make sense.
func inCallHead(input string, wordStart int) bool {
	prefix := strings.TrimRightFunc(input[:wordStart], unicode.IsSpace)

	return strings.HasSuffix(prefix, "(")
}

// candidates returns the names that complete a word in the evaluator's
// session. The head of a list completes to callables. Anywhere else a
// word starting with '#' completes to variables and any other word to
// everything.
func candidates(ev *lang.Evaluator, word string, head bool) []string {
	if ev == nil {
		return nil
	}

	names := ev.Names()

	switch {
	case head:
		names = slices.DeleteFunc(names, isVariable)
		names = append(names, specialFormNames()...)

	case strings.HasPrefix(word, "#"):
		names = slices.DeleteFunc(names, func(s string) bool { return !isVariable(s) })

	default:
		names = append(names, specialFormNames()...)
	}

	slices.Sort(names)

	return slices.Compact(names)
}

func isVariable(name string) bool { return strings.HasPrefix(name, "#") }

// computeMatches returns the fuzzy matches for the word under the cursor,
// ranked best first, with the word's byte offsets.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	cands []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())
	if word == "" {
		return nil, nil, wordStart, wordEnd
	}

	if m.mode == modeCtrl {
		cands = ctrlCommands
	} else {
		cands = candidates(m.ev, word, inCallHead(input, wordStart))
	}

	if len(cands) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "#" && m.mode == modeEval {
		matches = make(fuzzy.Matches, len(cands))
		for i, c := range cands {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, cands, wordStart, wordEnd
	}

	return fuzzy.Find(word, cands), cands, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to
// fit width. The selected candidate is highlighted while tab-cycling.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var (
		b    strings.Builder
		used int
	)

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// emphasized.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matched := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matched[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matched[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	return b.String()
}
