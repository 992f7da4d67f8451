// Package layout names the files and directories of an installed voice.
//
// Given an installation root, a voice is laid out as
//
//	<root>/lib/voices/<voice>/<model files>
//	<root>/conf/<locale>-<voice>.config
//
// where <voice> is the lower-cased voice name. The same layout is referenced
// from the generated config through the [RootToken] placeholder so that the
// config stays valid on whichever machine the package is unpacked.
package layout

import (
	"path"
	"path/filepath"
	"strings"
)

// RootToken is the placeholder the synthesis server expands to its own
// installation root when it reads a voice config.
const RootToken = "MARY_BASE"

// Layout locates one voice below an installation root.
type Layout struct {
	// Root is the installation root on the local filesystem.
	Root string

	// Voice is the lower-cased voice name.
	Voice string

	// Locale is the normalised locale, e.g. "en_US".
	Locale string
}

// New returns a Layout for the named voice. The name is lower-cased.
func New(root, voice, locale string) Layout {
	return Layout{Root: root, Voice: strings.ToLower(voice), Locale: locale}
}

// VoiceDirRel is the voice directory relative to the root, slash-separated.
func (l Layout) VoiceDirRel() string {
	return path.Join("lib", "voices", l.Voice)
}

// VoiceDir is the absolute (or root-relative) voice directory on disk.
func (l Layout) VoiceDir() string {
	return filepath.Join(l.Root, filepath.FromSlash(l.VoiceDirRel()))
}

// ConfigName is the base name of the voice config file.
func (l Layout) ConfigName() string {
	return l.Locale + "-" + l.Voice + ".config"
}

// ConfigRel is the config file path relative to the root, slash-separated.
func (l Layout) ConfigRel() string {
	return path.Join("conf", l.ConfigName())
}

// ConfigPath is the config file path on disk.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.Root, filepath.FromSlash(l.ConfigRel()))
}

// ArchiveName is the base name of the distributable archive, created in Root.
func (l Layout) ArchiveName() string {
	return l.Locale + "-" + l.Voice + ".zip"
}

// InstalledRef returns the portable reference to an installed file as written
// into the voice config: RootToken/lib/voices/<voice>/<baseName>.
func (l Layout) InstalledRef(baseName string) string {
	return RootToken + "/" + l.VoiceDirRel() + "/" + baseName
}
