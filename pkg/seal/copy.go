package seal

import (
	"bufio"
	"io"
)

// CopyAndPad streams unitLen-sized runs from src, inserting a zero high byte
// after each run to produce unitLen+1-sized padded units, without holding
// the whole file in memory. It is the streaming counterpart of the
// per-block padding Seal performs in-memory on already-loaded origin bytes.
func CopyAndPad(dst io.Writer, src io.Reader, unitLen int) (int64, error) {
	r := bufio.NewReaderSize(src, unitLen*64)
	w := bufio.NewWriterSize(dst, (unitLen+1)*64)

	buf := make([]byte, unitLen)
	var written int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return written, werr
			}
			if n == unitLen {
				if werr := w.WriteByte(0); werr != nil {
					return written, werr
				}
				written += int64(n + 1)
			} else {
				written += int64(n)
			}
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return written, err
		}
	}
	return written, w.Flush()
}

// CopyAndCompress is the inverse of CopyAndPad: it strips the trailing high
// byte off each unitPadLen-sized run, streaming throughout.
func CopyAndCompress(dst io.Writer, src io.Reader, unitPadLen int) (int64, error) {
	r := bufio.NewReaderSize(src, unitPadLen*64)
	w := bufio.NewWriterSize(dst, (unitPadLen-1)*64)

	buf := make([]byte, unitPadLen)
	var written int64
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			keep := n
			if n == unitPadLen {
				keep = n - 1
			}
			if _, werr := w.Write(buf[:keep]); werr != nil {
				return written, werr
			}
			written += int64(keep)
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			break
		}
		if err != nil {
			return written, err
		}
	}
	return written, w.Flush()
}
