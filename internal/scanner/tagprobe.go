package scanner

import (
	"github.com/pkg/xattr"
	"github.com/spf13/afero"
)

// finderTagAttr is the extended attribute macOS Finder stores user tags in.
const finderTagAttr = "com.apple.metadata:_kMDItemUserTags"

// TagProbe reports whether a filesystem entry carries a user tag. Probing can
// be slow, so the scanner only consults it when tag handling is configured.
type TagProbe interface {
	HasTag(path string) bool
}

// NoopTagProbe never reports a tag. Used on filesystems without extended
// attribute support.
type NoopTagProbe struct{}

func (NoopTagProbe) HasTag(string) bool { return false }

// XattrTagProbe reads extended attributes from the real filesystem.
type XattrTagProbe struct{}

// HasTag checks for the Finder tag attribute without following symlinks.
// Unreadable entries count as untagged.
func (XattrTagProbe) HasTag(path string) bool {
	attrs, err := xattr.LList(path)
	if err != nil {
		return false
	}
	for _, attr := range attrs {
		if attr == finderTagAttr {
			return true
		}
	}
	return false
}

// DefaultTagProbe picks the probe for the given filesystem: extended
// attributes only exist on the real OS filesystem, everything else gets the
// noop probe.
func DefaultTagProbe(fsys afero.Fs) TagProbe {
	if _, ok := fsys.(*afero.OsFs); ok && xattr.XATTR_SUPPORTED {
		return XattrTagProbe{}
	}
	return NoopTagProbe{}
}
