package minilisp

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// pragmaPat matches a first line such as ";; minilisp >= 0.5".
var pragmaPat = regexp.MustCompile(`^;+\s*minilisp\s+(.+?)\s*$`)

// CheckPragma checks the version constraint which the first non-blank
// line of src may declare against Version.  Sources without a pragma
// are accepted.
func CheckPragma(src string) error {
	line := firstLine(src)
	m := pragmaPat.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	c, err := semver.NewConstraint(m[1])
	if err != nil {
		return NewEvalError(ErrVersion, "bad version constraint", m[1])
	}
	if !c.Check(semver.MustParse(Version)) {
		return NewEvalError(ErrVersion,
			fmt.Sprintf("requires minilisp %s, this is %s", m[1], Version), nil)
	}
	return nil
}

func firstLine(src string) string {
	for _, line := range strings.Split(src, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
