package serve

// Header names and values used when answering range requests
const (
	AcceptRangesHeader  = "Accept-Ranges"
	ContentRangeHeader  = "Content-Range"
	ContentLengthHeader = "Content-Length"
	ContentTypeHeader   = "Content-Type"
	LastModifiedHeader  = "Last-Modified"
	RangeHeader         = "Range"

	// BytesUnit is the only range unit understood
	BytesUnit = "bytes"
)

const (
	// BufferSize is the size of the copy buffer used by Stream
	BufferSize = 4096

	// DefaultChunkSize bounds the window of a range with no end
	DefaultChunkSize = 1024 * 1024
)
