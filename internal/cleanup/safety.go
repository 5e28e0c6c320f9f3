package cleanup

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// checkSafety runs the ordered, short-circuiting filter chain. A
// candidate that fails any filter is kept in the plan for visibility but
// marked unsafe and never auto-deleted.
func (p *Planner) checkSafety(path string, info fs.FileInfo) (safe bool, reason string) {
	lower := strings.ToLower(filepath.Clean(path))

	for _, prefix := range p.opts.ProtectedPrefixes {
		if prefix == "" {
			continue
		}
		if underPrefix(lower, prefix) {
			return false, fmt.Sprintf("under protected prefix %s", prefix)
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	for _, protected := range p.opts.ProtectedExtensions {
		if ext == strings.ToLower(protected) {
			return false, fmt.Sprintf("protected extension %s", ext)
		}
	}

	if !info.Mode().IsRegular() {
		return false, fmt.Sprintf("not a regular file (%s)", info.Mode().Type())
	}

	if info.Size() > p.opts.MaxSingleFileBytes && !p.opts.AllowOversize {
		return false, fmt.Sprintf("%d bytes exceeds single-file cap", info.Size())
	}

	return true, ""
}

// underPrefix matches on path-separator boundaries, so prefix /etc
// shields /etc and /etc/passwd but not /etc2/foo. The path must already
// be lowercased and cleaned.
func underPrefix(path, prefix string) bool {
	prefix = strings.ToLower(filepath.Clean(prefix))
	return path == prefix || strings.HasPrefix(path, prefix+string(filepath.Separator))
}
