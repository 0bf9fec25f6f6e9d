package serve

import (
	"io"

	"github.com/mediaserve/mediaserve/fs"
	"github.com/mediaserve/mediaserve/fs/fserrors"
	"github.com/pkg/errors"
)

// Stream copies length bytes from in to out through a BufferSize
// buffer.
//
// Stream takes ownership of in, which must already be positioned at the
// start of the window, and closes it exactly once before returning.
//
// If out reports that the client went away the copy stops early and
// Stream returns the bytes written so far with a nil error. A source
// which runs out before length bytes returns io.ErrUnexpectedEOF.
func Stream(in io.ReadCloser, length int64, out io.Writer) (written int64, err error) {
	defer func() {
		closeErr := in.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrap(closeErr, "stream: close")
		}
	}()
	buf := make([]byte, BufferSize)
	remaining := length
	for remaining > 0 {
		chunk := buf
		if remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}
		nr, readErr := in.Read(chunk)
		if nr > 0 {
			nw, writeErr := out.Write(chunk[:nr])
			written += int64(nw)
			if writeErr != nil {
				if fserrors.IsClosedConnError(writeErr) {
					fs.Debugf(nil, "Client went away after %d/%d bytes: %v", written, length, writeErr)
					return written, nil
				}
				return written, errors.Wrap(writeErr, "stream: write")
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
			remaining -= int64(nr)
		}
		if readErr == io.EOF {
			if remaining > 0 {
				return written, io.ErrUnexpectedEOF
			}
			break
		}
		if readErr != nil {
			return written, errors.Wrap(readErr, "stream: read")
		}
	}
	return written, nil
}
