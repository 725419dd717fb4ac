package constants

import "strings"

// AllowedExtensions holds the image extensions accepted by drop-folder ingestion.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"bmp":  {},
	"gif":  {},
	"tif":  {},
	"tiff": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedImage reports whether a file extension is accepted for OCR.
func IsAllowedImage(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// IsHEICExt reports whether the extension is a HEIC/HEIF phone photo that needs conversion first.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// IsPDFExt reports whether the extension is a PDF e-ticket.
func IsPDFExt(ext string) bool { return NormalizeExt(ext) == "pdf" }

// IsSupportedFile reports whether a file can be submitted from disk.
func IsSupportedFile(ext string) bool {
	return IsAllowedImage(ext) || IsHEICExt(ext) || IsPDFExt(ext)
}
