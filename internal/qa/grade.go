package qa

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Grade selects the register of answer text. The zero value returns spans
// verbatim.
type Grade string

const (
	GradeNone    Grade = ""
	GradeKid     Grade = "kid"
	GradeTeen    Grade = "teen"
	GradeCollege Grade = "college"
)

// ParseGrade accepts kid, teen or college in any case; an empty string is
// GradeNone.
func ParseGrade(s string) (Grade, error) {
	switch g := Grade(strings.ToLower(strings.TrimSpace(s))); g {
	case GradeNone, GradeKid, GradeTeen, GradeCollege:
		return g, nil
	}
	return GradeNone, fmt.Errorf("unknown grade %q (want kid, teen or college)", s)
}

// ReadingLevel is a human label for the grade.
func (g Grade) ReadingLevel() string {
	switch g {
	case GradeKid:
		return "Elementary (ages 8-12)"
	case GradeTeen:
		return "Middle/High School (ages 13-17)"
	case GradeCollege:
		return "College/University (18+)"
	}
	return "Unspecified"
}

// Wrap composes answer text for the grade around a matched span.
func (g Grade) Wrap(span, topic string) string {
	switch g {
	case GradeKid:
		if topic != "" {
			return fmt.Sprintf("Let's learn about %s! %s", topic, span)
		}
		return "Here's a simple way to think about it: " + span
	case GradeTeen:
		return "Here's what your document says: " + span
	case GradeCollege:
		return "According to the document, " + lowerFirst(span)
	}
	return span
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || !unicode.IsUpper(r) {
		return s
	}
	// Keep acronyms such as "DNA" intact.
	if next, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(next) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
