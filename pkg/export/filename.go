package export

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/matzehuels/orchard/pkg/record"
)

// Filename returns review-<title|export>-[og-]<unix ms>.<ext>. The og-
// marker is added for social raster exports. Path separators and control
// characters and dot runs in the title are replaced.
func Filename(rec record.Record, r Request, at time.Time) string {
	og := ""
	if r.Scope == ScopeSocial && r.Format.Raster() {
		og = "og-"
	}
	return fmt.Sprintf("review-%s-%s%d.%s", safeName(Title(rec, "export")), og, at.UnixMilli(), r.Format.Ext())
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\', r == ':', unicode.IsControl(r):
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "..", "_")
	if s == "" || s == "." {
		return "export"
	}
	return s
}
