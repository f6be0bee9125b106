package constants

import (
	"path/filepath"
	"strings"
)

// FileKind is the semantic classification of an uploaded file.
type FileKind string

const (
	KindImage       FileKind = "image"
	KindPDF         FileKind = "pdf"
	KindSpreadsheet FileKind = "spreadsheet"
	KindUnknown     FileKind = "unknown"
)

var imageExts = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
	"bmp":  {},
}

var spreadsheetExts = map[string]struct{}{
	"xlsx": {},
	"xls":  {},
	"csv":  {},
	"ods":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind maps a normalized extension to a FileKind.
func MapExtToKind(ext string) FileKind {
	if _, ok := imageExts[ext]; ok {
		return KindImage
	}
	if ext == "pdf" {
		return KindPDF
	}
	if _, ok := spreadsheetExts[ext]; ok {
		return KindSpreadsheet
	}
	return KindUnknown
}

// ClassifyFilename maps a file name to a FileKind by extension.
// Missing or unrecognized extensions classify as KindUnknown.
func ClassifyFilename(name string) FileKind {
	return MapExtToKind(NormalizeExt(filepath.Ext(name)))
}

// AllowedExtensions returns the extensions the pipeline can process,
// lowercased and without the leading dot.
func AllowedExtensions() map[string]struct{} {
	out := make(map[string]struct{}, len(imageExts)+len(spreadsheetExts)+1)
	for e := range imageExts {
		out[e] = struct{}{}
	}
	for e := range spreadsheetExts {
		out[e] = struct{}{}
	}
	out["pdf"] = struct{}{}
	return out
}
