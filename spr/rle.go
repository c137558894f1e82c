package spr

import "fmt"

// RLEError is returned when a run-length encoded image does not decode to the
// expected number of pixels.
type RLEError struct {
	Expected int
	Got      int
}

func (e *RLEError) Error() string {
	return fmt.Sprintf("rle: decoded %d pixels, expected %d", e.Got, e.Expected)
}

// DecodeRLE expands the run-length encoding used by indexed images: a zero
// byte followed by a count N is N zero pixels, and any other byte is a single
// pixel. The result must be exactly n pixels.
func DecodeRLE(b []byte, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for i := 0; i < len(b); i++ {
		if b[i] != 0 {
			out = append(out, b[i])
			continue
		}
		i++
		if i == len(b) {
			// a dangling zero has no count
			return nil, &RLEError{Expected: n, Got: len(out) + 1}
		}
		for j := 0; j < int(b[i]); j++ {
			out = append(out, 0)
		}
		if len(out) > n {
			break
		}
	}
	if len(out) != n {
		return nil, &RLEError{Expected: n, Got: len(out)}
	}
	return out, nil
}

// EncodeRLE is the inverse of DecodeRLE.
func EncodeRLE(pixels []byte) []byte {
	out := make([]byte, 0, len(pixels))
	for i := 0; i < len(pixels); {
		if pixels[i] != 0 {
			out = append(out, pixels[i])
			i++
			continue
		}
		run := 0
		for i < len(pixels) && pixels[i] == 0 && run < 255 {
			run++
			i++
		}
		out = append(out, 0, byte(run))
	}
	return out
}
