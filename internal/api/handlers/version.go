package handlers

import (
	"net/http"
	"regexp"
	"runtime"
	"strings"

	"github.com/gin-gonic/gin"
)

// Version is set via ldflags at build time, usually to `git describe --tags --dirty`.
var Version = "dev"

var (
	describeRe = regexp.MustCompile(`^(.+)-(\d+)-g([0-9a-f]+)$`)
	bareHashRe = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
)

// parseGitDescribe turns git describe output into a PEP 440-ish version and
// the commit it was built from, when that is not a tagged release.
func parseGitDescribe(s string) (version, commit string) {
	if bareHashRe.MatchString(s) {
		return "dev+" + s, s
	}

	s = strings.TrimPrefix(s, "v")
	dirty := strings.HasSuffix(s, "-dirty")
	s = strings.TrimSuffix(s, "-dirty")

	if m := describeRe.FindStringSubmatch(s); m != nil {
		return m[1] + ".dev+" + m[3], m[3]
	}
	if dirty {
		return s + ".dev", ""
	}
	return s, ""
}

// GetVersion godoc
// @Summary Get version information
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /version [get]
func GetVersion(c *gin.Context) {
	version, commit := parseGitDescribe(Version)
	c.JSON(http.StatusOK, gin.H{
		"version":    version,
		"commit":     commit,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	})
}
