package dedupe

import (
	"regexp"
	"strings"
)

// duplicatePatterns are the automatic-copy suffixes file managers and sync
// tools mint. Order matters: the first match wins, so the more specific
// word suffixes come before the bare numeric one.
var duplicatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)_copy(\d*)$`),      // archivo_copy, archivo_Copy1
	regexp.MustCompile(`(?i)\s+copy(\d*)$`),    // archivo copy, archivo Copy2
	regexp.MustCompile(`(?i)_copia(\d*)$`),     // archivo_copia
	regexp.MustCompile(`(?i)\s+copia(\d*)$`),   // archivo copia 2
	regexp.MustCompile(`(?i)_duplicate(\d*)$`), // archivo_duplicate1
	regexp.MustCompile(`(?i)_dup(\d*)$`),       // archivo_dup
	regexp.MustCompile(`(?i)_backup(\d*)$`),    // archivo_backup
	regexp.MustCompile(`[_\s]\d{4}-\d{2}-\d{2}$`), // archivo 2024-01-15
	regexp.MustCompile(`_(\d+)$`),              // archivo_1, archivo_2
	regexp.MustCompile(`\s+(\d+)$`),            // archivo 2
	regexp.MustCompile(`-(\d+)$`),              // archivo-2
	regexp.MustCompile(`\s+\((\d+)\)$`),        // archivo (2)
}

// Detection describes whether a name looks like an automatic duplicate.
type Detection struct {
	IsDuplicate bool
	BaseName    string
	Suffix      string
}

// DetectSuffix checks a folder or file stem against the known duplicate
// suffix patterns and returns the cleaned base name when one matches.
func DetectSuffix(name string) Detection {
	name = strings.TrimSpace(name)
	if name == "" {
		return Detection{BaseName: name}
	}

	for _, pattern := range duplicatePatterns {
		if loc := pattern.FindStringIndex(name); loc != nil {
			base := strings.TrimSpace(name[:loc[0]])
			if base == "" {
				// A bare "2" or "copy" is not a duplicate of anything.
				continue
			}
			return Detection{
				IsDuplicate: true,
				BaseName:    base,
				Suffix:      name[loc[0]:],
			}
		}
	}

	return Detection{BaseName: name}
}
