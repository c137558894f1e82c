package grf

import "fmt"

// The archive cipher is a single DES round with fixed key material folded into
// the S-boxes. The round only modifies the left half using the right half, so
// a block run through it twice comes back unchanged.

// desHeaderBlocks is the number of leading blocks which are always
// DES-encrypted in both encryption modes.
const desHeaderBlocks = 20

var desMask = [8]byte{0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01}

var desIP = [64]byte{
	58, 50, 42, 34, 26, 18, 10, 2,
	60, 52, 44, 36, 28, 20, 12, 4,
	62, 54, 46, 38, 30, 22, 14, 6,
	64, 56, 48, 40, 32, 24, 16, 8,
	57, 49, 41, 33, 25, 17, 9, 1,
	59, 51, 43, 35, 27, 19, 11, 3,
	61, 53, 45, 37, 29, 21, 13, 5,
	63, 55, 47, 39, 31, 23, 15, 7,
}

var desFP = [64]byte{
	40, 8, 48, 16, 56, 24, 64, 32,
	39, 7, 47, 15, 55, 23, 63, 31,
	38, 6, 46, 14, 54, 22, 62, 30,
	37, 5, 45, 13, 53, 21, 61, 29,
	36, 4, 44, 12, 52, 20, 60, 28,
	35, 3, 43, 11, 51, 19, 59, 27,
	34, 2, 42, 10, 50, 18, 58, 26,
	33, 1, 41, 9, 49, 17, 57, 25,
}

var desTP = [32]byte{
	16, 7, 20, 21,
	29, 12, 28, 17,
	1, 15, 23, 26,
	5, 18, 31, 10,
	2, 8, 24, 14,
	32, 27, 3, 9,
	19, 13, 30, 6,
	22, 11, 4, 25,
}

// desS holds two 6-to-4 S-boxes per table, one in each nibble.
var desS = [4][64]byte{
	{
		0xef, 0x03, 0x41, 0xfd, 0xd8, 0x74, 0x1e, 0x47, 0x26, 0xef, 0xfb, 0x22, 0xb3, 0xd8, 0x84, 0x1e,
		0x39, 0xac, 0xa7, 0x60, 0x62, 0xc1, 0xcd, 0xba, 0x5c, 0x96, 0x90, 0x59, 0x05, 0x3b, 0x7a, 0x85,
		0x40, 0xfd, 0x1e, 0xc8, 0xe7, 0x8a, 0x8b, 0x21, 0xda, 0x43, 0x64, 0x9f, 0x2d, 0x14, 0xb1, 0x72,
		0xf5, 0x5b, 0xc8, 0xb6, 0x9c, 0x37, 0x76, 0xec, 0x39, 0xa0, 0xa3, 0x05, 0x52, 0x6e, 0x0f, 0xd9,
	},
	{
		0xa7, 0xdd, 0x0d, 0x78, 0x9e, 0x0b, 0xe3, 0x95, 0x60, 0x36, 0x36, 0x4f, 0xf9, 0x60, 0x5a, 0xa3,
		0x11, 0x24, 0xd2, 0x87, 0xc8, 0x52, 0x75, 0xec, 0xbb, 0xc1, 0x4c, 0xba, 0x24, 0xfe, 0x8f, 0x19,
		0xda, 0x13, 0x66, 0xaf, 0x49, 0xd0, 0x90, 0x06, 0x8c, 0x6a, 0xfb, 0x91, 0x37, 0x8d, 0x0d, 0x78,
		0xbf, 0x49, 0x11, 0xf4, 0x23, 0xe5, 0xce, 0x3b, 0x55, 0xbc, 0xa2, 0x57, 0xe8, 0x22, 0x74, 0xce,
	},
	{
		0x2c, 0xea, 0xc1, 0xbf, 0x4a, 0x24, 0x1f, 0xc2, 0x79, 0x47, 0xa2, 0x7c, 0xb6, 0xd9, 0x68, 0x15,
		0x80, 0x56, 0x5d, 0x01, 0x33, 0xfd, 0xf4, 0xae, 0xde, 0x30, 0x07, 0x9b, 0xe5, 0x83, 0x9b, 0x68,
		0x49, 0xb4, 0x2e, 0x83, 0x1f, 0xc2, 0xb5, 0x7c, 0xa2, 0x19, 0xd8, 0xe5, 0x7c, 0x2f, 0x83, 0xda,
		0xf7, 0x6b, 0x90, 0xfe, 0xc4, 0x01, 0x5a, 0x97, 0x61, 0xa6, 0x3d, 0x40, 0x0b, 0x58, 0xe6, 0x3d,
	},
	{
		0x4d, 0xd1, 0xb2, 0x0f, 0x28, 0xbd, 0xe4, 0x78, 0xf6, 0x4a, 0x0f, 0x93, 0x8b, 0x17, 0xd1, 0xa4,
		0x3a, 0xec, 0xc9, 0x35, 0x93, 0x56, 0x7e, 0xcb, 0x55, 0x20, 0xa0, 0xfe, 0x6c, 0x89, 0x17, 0x62,
		0x17, 0x62, 0x4b, 0xb1, 0xb4, 0xde, 0xd1, 0x87, 0xc9, 0x14, 0x3c, 0x4a, 0x7e, 0xa8, 0xe2, 0x7d,
		0xa0, 0x9f, 0xf6, 0x5c, 0x6a, 0x09, 0x8d, 0xf0, 0x0f, 0xe3, 0x53, 0x25, 0x95, 0x36, 0x28, 0xcb,
	},
}

type block [8]byte

func (b *block) permute(table *[64]byte) {
	var t block
	for i, x := range table {
		j := x - 1
		if b[j>>3]&desMask[j&7] != 0 {
			t[i>>3] |= desMask[i&7]
		}
	}
	*b = t
}

// expand spreads the right half into eight 6-bit groups.
func (b *block) expand() {
	var t block
	t[0] = ((b[7] << 5) | (b[4] >> 3)) & 0x3f
	t[1] = ((b[4] << 1) | (b[5] >> 7)) & 0x3f
	t[2] = ((b[4] << 5) | (b[5] >> 3)) & 0x3f
	t[3] = ((b[5] << 1) | (b[6] >> 7)) & 0x3f
	t[4] = ((b[5] << 5) | (b[6] >> 3)) & 0x3f
	t[5] = ((b[6] << 1) | (b[7] >> 7)) & 0x3f
	t[6] = ((b[6] << 5) | (b[7] >> 3)) & 0x3f
	t[7] = ((b[7] << 1) | (b[4] >> 7)) & 0x3f
	*b = t
}

func (b *block) substitute() {
	var t block
	for i := range desS {
		t[i] = desS[i][b[i*2]]&0xf0 | desS[i][b[i*2+1]]&0x0f
	}
	*b = t
}

// transpose moves the 32 bits in the left half into the right half.
func (b *block) transpose() {
	var t block
	for i, x := range desTP {
		j := x - 1
		if b[j>>3]&desMask[j&7] != 0 {
			t[(i>>3)+4] |= desMask[i&7]
		}
	}
	*b = t
}

func (b *block) round() {
	t := *b
	t.expand()
	t.substitute()
	t.transpose()
	b[0] ^= t[4]
	b[1] ^= t[5]
	b[2] ^= t[6]
	b[3] ^= t[7]
}

// des applies the block transform in place. It is its own inverse.
func (b *block) des() {
	b.permute(&desIP)
	b.round()
	b.permute(&desFP)
}

// shuffleSub is the byte substitution applied to the last byte of a shuffled
// block. Every pair maps both ways.
var shuffleSub = func() (t [256]byte) {
	for i := range t {
		t[i] = byte(i)
	}
	for _, p := range [][2]byte{
		{0x00, 0x2b},
		{0x01, 0x68},
		{0x48, 0x77},
		{0x60, 0xff},
		{0x6c, 0x80},
		{0xb9, 0xc0},
		{0xeb, 0xfe},
	} {
		t[p[0]], t[p[1]] = p[1], p[0]
	}
	return
}()

func (b *block) unshuffle() {
	*b = block{b[3], b[4], b[6], b[0], b[1], b[2], b[5], shuffleSub[b[7]]}
}

func (b *block) shuffle() {
	*b = block{b[3], b[4], b[5], b[0], b[1], b[6], b[2], shuffleSub[b[7]]}
}

// Encryption is the payload encryption mode of an archive entry.
type Encryption uint8

const (
	EncryptNone   Encryption = iota
	EncryptMixed             // leading blocks and a periodic subset of the rest
	EncryptHeader            // leading blocks only
)

func (e Encryption) String() string {
	switch e {
	case EncryptNone:
		return "none"
	case EncryptMixed:
		return "mixed"
	case EncryptHeader:
		return "header"
	default:
		return fmt.Sprintf("Encryption(%d)", uint8(e))
	}
}

// ParseEncryption is the inverse of Encryption.String.
func ParseEncryption(s string) (Encryption, error) {
	for _, e := range []Encryption{EncryptNone, EncryptMixed, EncryptHeader} {
		if e.String() == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("unknown encryption mode %q", s)
}

// mixedCycle returns the interval between DES blocks after the leading blocks
// of a mixed-mode payload. It depends on the number of decimal digits of the
// compressed (unaligned) length.
func mixedCycle(compressed uint32) int {
	digits := 1
	for n := uint64(10); n <= uint64(compressed); n *= 10 {
		digits++
	}
	switch {
	case digits < 3:
		return 1
	case digits < 5:
		return digits + 1
	case digits < 7:
		return digits + 9
	default:
		return digits + 15
	}
}

// decrypt decodes buf in place. Trailing bytes which do not form a whole block
// are left alone.
func decrypt(buf []byte, mode Encryption, compressed uint32) {
	crypt(buf, mode, compressed, (*block).unshuffle)
}

// encrypt is the inverse of decrypt.
func encrypt(buf []byte, mode Encryption, compressed uint32) {
	crypt(buf, mode, compressed, (*block).shuffle)
}

func crypt(buf []byte, mode Encryption, compressed uint32, shuffle func(*block)) {
	if mode == EncryptNone {
		return
	}
	n := len(buf) / 8
	at := func(i int) *block {
		return (*block)(buf[i*8 : i*8+8])
	}
	for i := 0; i < n && i < desHeaderBlocks; i++ {
		at(i).des()
	}
	if mode != EncryptMixed {
		return
	}
	cycle := mixedCycle(compressed)
	for i, j := desHeaderBlocks, 0; i < n; i++ {
		if i%cycle == 0 {
			at(i).des()
			continue
		}
		if j == 7 {
			shuffle(at(i))
			j = 0
		}
		j++
	}
}
