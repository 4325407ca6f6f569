package wire

import "io"

// ReadLine reads bytes from r up to the next line terminator and returns the
// line without it.
//
// "\r\n" and a bare "\n" both terminate the line. A "\r" followed by any other
// byte is not a terminator: both bytes are appended unexamined and scanning
// continues.
//
// When the stream ends, ReadLine returns whatever was accumulated (possibly
// nothing) together with io.EOF. Any other read error is returned as is.
func ReadLine(r io.ByteReader) ([]byte, error) {
	var line []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return line, err
		}

		switch b {
		case '\n':
			return line, nil
		case '\r':
			next, err := r.ReadByte()
			if err != nil {
				return append(line, '\r'), err
			}
			if next == '\n' {
				return line, nil
			}
			line = append(line, '\r', next)
		default:
			line = append(line, b)
		}
	}
}
