// Package prompt builds the instruction-augmented requests sent to the
// translation backend. The backend is a generic instruction-following
// model, not a dedicated translation API, so the prompt itself is the
// only enforcement mechanism before output validation: it must state the
// direction, forbid commentary, enumerate every protected token, and
// keep the source text clearly separated from the instructions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/arbkit/arbkit/icu"
)

// Build constructs the full backend request for one string.
//
// langName is the human-readable target language ("Spanish"), langCode
// the backend-facing code ("es"). The layout follows the TranslateGemma
// prompt format: persona and output rules first, token-preservation
// instructions next, then the literal source text after two blank lines.
func Build(text, langName, langCode string, ts icu.TokenSet) string {
	var instructions []string

	if len(ts.Names) > 0 {
		braced := make([]string, len(ts.Names))
		for i, n := range ts.Names {
			braced[i] = "{" + n + "}"
		}
		instructions = append(instructions,
			fmt.Sprintf("CRITICAL: Keep these placeholders EXACTLY as they appear: %s", strings.Join(braced, ", ")))
	}
	if ts.HasICU {
		instructions = append(instructions,
			"CRITICAL: Preserve ICU message format structure (plural, select, =0, =1, other, etc.). Only translate the text inside the forms.")
	}

	instructionText := strings.Join(instructions, "\n")
	separator := ""
	if instructionText != "" {
		separator = "\n"
	}

	return fmt.Sprintf(`You are a professional English (en) to %s (%s) translator. Your goal is to accurately convey the meaning and nuances of the original English text while adhering to %s grammar, vocabulary, and cultural sensitivities.
Produce only the %s translation, without any additional explanations or commentary.%s%s
Please translate the following English text into %s:


%s`, langName, langCode, langName, langName, separator, instructionText, langName, text)
}
