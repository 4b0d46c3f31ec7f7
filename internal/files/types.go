package files

import (
	"path/filepath"
	"strings"
)

const (
	TypeDirectory = "directory"
	TypeFile      = "file"
)

var typeByExt = map[string]string{
	"rs": "Rust file", "py": "Python file", "js": "JavaScript file", "java": "Java file",
	"c": "C file", "cpp": "C++ file", "cc": "C++ file", "h": "Header file", "hpp": "Header file",
	"kt": "Kotlin file", "ts": "Typescript", "tsx": "Typescript react file", "jsx": "Javascript react file",
	"sh": "Shell script", "bash": "Shell script", "zsh": "Shell script",
	"bashrc": "Shell init script", "zshrc": "Shell init script", "profile": "Shell init script",
	"zprofile": "Shell init script", "bash_profile": "Shell init script",
	"txt": "Text file", "md": "markdown", "gitignore": "gitignore file",
	"zip": "zip file", "tar": "tarball", "gz": "gzip archive",
	"so": "Shared object file", "dll": "Data linked library", "exe": "Windows executable", "bin": "Binary file",
	"AppImage": "App image file", "desktop": "Linux desktop meta file", "iso": "Installation media file",
	"mp3": "MP3 Audio file", "m4a": "m4a Audio file", "flac": "flac Audio File",
	"mp4": "MP4 Video file", "m4v": "m4v Video file", "mov": "mov Video file",
	"png": "PNG Image", "jpeg": "JPEG Image", "jpg": "JPEG Image", "gif": "gif file", "svg": "SVG image",
	"ttf": "ttf font", "otf": "otf font", "blob": "blob file",
	"yaml": "yaml file", "yml": "yaml file", "toml": "toml file", "json": "json file", "conf": "Config file",
	"cs": "C# file", "html": "html file", "css": "css file", "lua": "lua file", "dart": "dart file",
	"go": "go file", "zig": "zig file", "php": "php file", "rb": "ruby", "m": "Objective C file",
	"asm": "Assembly file", "s": "Assembly file", "ld": "Linker script", "gradle": "gradle file",
	"cmake": "cmake source code file", "qml": "Qt markup language file", "smali": "Android smali file",
	"patch": "Diff file", "diff": "Diff file",
	"sql": "SQL database", "sqlite": "SQL database", "sqlite3": "SQL database", "db": "Database file",
	"love": "Love game", "jkr": "Balatro joker save file", "bepis": "Ultrakill save file",
}

// Classify returns the human label announced in an offer. The label is a
// single token on the wire, so it never contains "; ".
func Classify(path string, isDir bool) string {
	if isDir {
		return TypeDirectory
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return TypeFile
	}
	if label, ok := typeByExt[ext]; ok {
		return label
	}
	return TypeFile
}
