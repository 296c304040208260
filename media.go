package img2txt

import (
	"path/filepath"
	"strings"
)

// MediaKind classifies a source as a still image or a video. The
// pipelines accept an already-resolved kind; classification is a
// caller concern, kept here only as a convenience for the CLI and
// service layers.
type MediaKind int

const (
	MediaUnknown MediaKind = iota
	MediaImage
	MediaVideo
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".bmp": true, ".tiff": true, ".tif": true, ".webp": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wmv": true, ".flv": true, ".webm": true,
}

// KindOfPath classifies a file path by extension.
func KindOfPath(path string) MediaKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return MediaImage
	case videoExtensions[ext]:
		return MediaVideo
	default:
		return MediaUnknown
	}
}
