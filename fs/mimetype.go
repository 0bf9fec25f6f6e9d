package fs

import (
	"mime"
	"path"
	"strings"
)

// mediaTypes are registered so the guesses don't depend on the mime
// tables installed on the host
var mediaTypes = map[string]string{
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".m4a":  "audio/mp4",
	".mkv":  "video/x-matroska",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".mp4":  "video/mp4",
	".oga":  "audio/ogg",
	".ogg":  "audio/ogg",
	".ogv":  "video/ogg",
	".wav":  "audio/wav",
	".webm": "video/webm",
}

func init() {
	for ext, mimeType := range mediaTypes {
		if err := mime.AddExtensionType(ext, mimeType); err != nil {
			Errorf(nil, "Failed to register mime type %q for %q: %v", mimeType, ext, err)
		}
	}
}

// MimeTypeFromName returns a guess at the mime type from the name
func MimeTypeFromName(remote string) (mimeType string) {
	mimeType = mime.TypeByExtension(path.Ext(remote))
	if !strings.ContainsRune(mimeType, '/') {
		mimeType = "application/octet-stream"
	}
	return mimeType
}
