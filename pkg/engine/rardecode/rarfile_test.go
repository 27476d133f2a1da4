package rardecode

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
	"time"
	"unicode/utf16"
)

// Archives for the tests are assembled here with stored (uncompressed)
// entries, in the RAR 4 and RAR 5 layouts.

const fixturePassword = "correct horse"

var (
	readmeData = []byte("read me first\n")
	plainData  = []byte("stored without a password\n")
	secretData = []byte("only readable with the password\n")
	firstData  = []byte("first volume only\n")
	bigData    = bytes.Repeat([]byte("spans both volumes. "), 40)
	lastData   = []byte("second volume only\n")

	fixtureTime = time.Date(2024, time.May, 1, 12, 30, 0, 0, time.Local)
)

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func plainRar4(t *testing.T, dir string) string {
	w := newRar4(0, "")
	w.dir("docs")
	w.file(`docs\readme.txt`, readmeData, false)
	w.file("plain.txt", plainData, false)
	w.symlink("link", "plain.txt")
	return writeFixture(t, dir, "plain4.rar", w.end(0))
}

// lockedRar4 is what "rar a -p" produces: one open entry, one encrypted.
func lockedRar4(t *testing.T, dir string) string {
	w := newRar4(0, fixturePassword)
	w.file("plain.txt", plainData, false)
	w.file("secret.txt", secretData, true)
	return writeFixture(t, dir, "locked4.rar", w.end(0))
}

// hiddenRar4 is what "rar a -hp" produces.
func hiddenRar4(t *testing.T, dir string) string {
	w := newRar4(rar4ArcEncrypted, fixturePassword)
	w.file("plain.txt", plainData, true)
	w.file("secret.txt", secretData, true)
	return writeFixture(t, dir, "hidden4.rar", w.end(0))
}

func plainRar5(t *testing.T, dir string) string {
	w := newRar5("", false)
	w.dir("docs")
	w.file("docs/readme.txt", readmeData, false)
	w.file("plain.txt", plainData, false)
	return writeFixture(t, dir, "plain5.rar", w.end())
}

func lockedRar5(t *testing.T, dir string) string {
	w := newRar5(fixturePassword, false)
	w.file("plain.txt", plainData, false)
	w.file("secret.txt", secretData, true)
	return writeFixture(t, dir, "locked5.rar", w.end())
}

func hiddenRar5(t *testing.T, dir string) string {
	w := newRar5(fixturePassword, true)
	w.file("plain.txt", plainData, true)
	w.file("secret.txt", secretData, true)
	return writeFixture(t, dir, "hidden5.rar", w.end())
}

// volumeSet writes set.part1.rar and set.part2.rar with big.txt split across
// them, and returns the second volume.
func volumeSet(t *testing.T, dir string) string {
	const flags = rar4ArcVolume | rar4ArcNewNaming
	cut := len(bigData) / 3
	sum := crc32.ChecksumIEEE(bigData)

	w := newRar4(flags, "")
	w.file("first.txt", firstData, false)
	w.part("big.txt", bigData[:cut], rar4SplitAfter, len(bigData), crc32.ChecksumIEEE(bigData[:cut]))
	writeFixture(t, dir, "set.part1.rar", w.end(rar4EndNotLast))

	w = newRar4(flags, "")
	w.part("big.txt", bigData[cut:], rar4SplitBefore, len(bigData), sum)
	w.file("last.txt", lastData, false)
	return writeFixture(t, dir, "set.part2.rar", w.end(0))
}

const (
	rar4ArcVolume    = 0x0001
	rar4ArcNewNaming = 0x0010
	rar4ArcEncrypted = 0x0080

	rar4SplitBefore = 0x0001
	rar4SplitAfter  = 0x0002
	rar4Encrypted   = 0x0004
	rar4DirWindow   = 0x00e0
	rar4Salt        = 0x0400
	rar4LongBlock   = 0x8000

	rar4EndNotLast = 0x0001
)

type rar4Writer struct {
	buf      bytes.Buffer
	password string
	hdrSalt  []byte
	hdrKey   []byte
	hdrIV    []byte
}

func newRar4(arcFlags uint16, password string) *rar4Writer {
	w := &rar4Writer{password: password}
	w.buf.WriteString("Rar!\x1a\x07\x00")
	w.buf.Write(rar4Block(0x73, arcFlags, make([]byte, 6)))
	if arcFlags&rar4ArcEncrypted != 0 {
		w.hdrSalt = []byte("hdr-salt")
		w.hdrKey, w.hdrIV = rar4Keys(password, w.hdrSalt)
	}
	return w
}

// rar4Block frames body as a block: CRC16, type, flags and total size.
func rar4Block(htype byte, flags uint16, body []byte) []byte {
	b := make([]byte, 7, 7+len(body))
	b[2] = htype
	binary.LittleEndian.PutUint16(b[3:], flags)
	binary.LittleEndian.PutUint16(b[5:], uint16(7+len(body)))
	b = append(b, body...)
	binary.LittleEndian.PutUint16(b, uint16(crc32.ChecksumIEEE(b[2:])))
	return b
}

func (w *rar4Writer) header(block []byte) {
	if w.hdrKey == nil {
		w.buf.Write(block)
		return
	}
	w.buf.Write(w.hdrSalt)
	w.buf.Write(cbcEncrypt(w.hdrKey, w.hdrIV, block))
}

func (w *rar4Writer) dir(name string) {
	w.fileBlock(name, rar4DirWindow, 0x41ed, 0, 0, nil, nil)
}

func (w *rar4Writer) file(name string, data []byte, encrypt bool) {
	w.entry(name, 0x81a4, data, encrypt)
}

func (w *rar4Writer) symlink(name, target string) {
	w.entry(name, 0xa1ff, []byte(target), false)
}

func (w *rar4Writer) entry(name string, attrs uint32, data []byte, encrypt bool) {
	var (
		flags  uint16
		salt   []byte
		packed = data
	)
	if encrypt {
		flags |= rar4Encrypted | rar4Salt
		salt = []byte("filesalt")
		key, iv := rar4Keys(w.password, salt)
		packed = cbcEncrypt(key, iv, data)
	}
	w.fileBlock(name, flags, attrs, len(data), crc32.ChecksumIEEE(data), salt, packed)
}

// part writes one block of a file split across volumes. size and sum
// describe the whole file.
func (w *rar4Writer) part(name string, data []byte, flags uint16, size int, sum uint32) {
	w.fileBlock(name, flags, 0x81a4, size, sum, nil, data)
}

func (w *rar4Writer) fileBlock(name string, flags uint16, attrs uint32, size int, sum uint32, salt, packed []byte) {
	body := binary.LittleEndian.AppendUint32(nil, uint32(len(packed)))
	body = binary.LittleEndian.AppendUint32(body, uint32(size))
	body = append(body, 3) // unix
	body = binary.LittleEndian.AppendUint32(body, sum)
	body = binary.LittleEndian.AppendUint32(body, dosTime(fixtureTime))
	body = append(body, 29, 0x30) // version 2.9, stored
	body = binary.LittleEndian.AppendUint16(body, uint16(len(name)))
	body = binary.LittleEndian.AppendUint32(body, attrs)
	body = append(body, name...)
	body = append(body, salt...)

	w.header(rar4Block(0x74, flags|rar4LongBlock, body))
	w.buf.Write(packed)
}

func (w *rar4Writer) end(flags uint16) []byte {
	w.header(rar4Block(0x7b, flags, nil))
	return w.buf.Bytes()
}

func dosTime(t time.Time) uint32 {
	return uint32(t.Year()-1980)<<25 | uint32(t.Month())<<21 | uint32(t.Day())<<16 |
		uint32(t.Hour())<<11 | uint32(t.Minute())<<5 | uint32(t.Second()/2)
}

// rar4Keys derives the AES-128 key and IV RAR 3.x and 4.x use for a salt.
func rar4Keys(password string, salt []byte) (key, iv []byte) {
	var p []byte
	for _, v := range utf16.Encode([]rune(password)) {
		p = append(p, byte(v), byte(v>>8))
	}
	p = append(p, salt...)

	const rounds = 0x40000
	h := sha1.New()
	iv = make([]byte, 16)
	for i := 0; i < rounds; i++ {
		h.Write(p)
		h.Write([]byte{byte(i), byte(i >> 8), byte(i >> 16)})
		if i%(rounds/16) == 0 {
			iv[i/(rounds/16)] = h.Sum(nil)[19]
		}
	}
	key = h.Sum(nil)[:16]
	for k := key; len(k) >= 4; k = k[4:] {
		k[0], k[1], k[2], k[3] = k[3], k[2], k[1], k[0]
	}
	return key, iv
}

type rar5Writer struct {
	buf      bytes.Buffer
	password string
	hdrKey   []byte
}

func newRar5(password string, encryptHeaders bool) *rar5Writer {
	w := &rar5Writer{password: password}
	w.buf.WriteString("Rar!\x1a\x07\x01\x00")
	if encryptHeaders {
		salt := bytes.Repeat([]byte{'h'}, 16)
		key, check := rar5Keys(password, salt)
		body := binary.AppendUvarint(nil, 0) // AES-256
		body = binary.AppendUvarint(body, 1) // check present
		body = append(body, 0)               // log2 of the KDF count
		body = append(body, salt...)
		body = append(body, check...)
		w.buf.Write(rar5Header(4, body, nil, 0))
		w.hdrKey = key
	}
	w.header(rar5Header(1, binary.AppendUvarint(nil, 0), nil, 0))
	return w
}

// rar5Header frames a block: CRC32, vint size, vint type, vint flags, the
// optional extra and data sizes, then body and extra.
func rar5Header(htype uint64, body, extra []byte, dataSize int) []byte {
	var flags uint64
	if len(extra) > 0 {
		flags |= 0x01
	}
	if dataSize > 0 {
		flags |= 0x02
	}
	c := binary.AppendUvarint(nil, htype)
	c = binary.AppendUvarint(c, flags)
	if len(extra) > 0 {
		c = binary.AppendUvarint(c, uint64(len(extra)))
	}
	if dataSize > 0 {
		c = binary.AppendUvarint(c, uint64(dataSize))
	}
	c = append(c, body...)
	c = append(c, extra...)

	sized := binary.AppendUvarint(nil, uint64(len(c)))
	sized = append(sized, c...)
	return append(binary.LittleEndian.AppendUint32(nil, crc32.ChecksumIEEE(sized)), sized...)
}

func (w *rar5Writer) header(h []byte) {
	if w.hdrKey == nil {
		w.buf.Write(h)
		return
	}
	iv := bytes.Repeat([]byte{'i'}, 16)
	w.buf.Write(iv)
	w.buf.Write(cbcEncrypt(w.hdrKey, iv, h))
}

func (w *rar5Writer) dir(name string) {
	w.entry(name, true, nil, false)
}

func (w *rar5Writer) file(name string, data []byte, encrypt bool) {
	w.entry(name, false, data, encrypt)
}

func (w *rar5Writer) entry(name string, dir bool, data []byte, encrypt bool) {
	fileFlags, attrs := uint64(0x04), uint64(0o644) // CRC32 present
	if dir {
		fileFlags, attrs = 0x01, 0o755
	}
	body := binary.AppendUvarint(nil, fileFlags)
	body = binary.AppendUvarint(body, uint64(len(data)))
	body = binary.AppendUvarint(body, attrs)
	if !dir {
		body = binary.LittleEndian.AppendUint32(body, crc32.ChecksumIEEE(data))
	}
	body = binary.AppendUvarint(body, 0) // stored
	body = binary.AppendUvarint(body, 1) // unix
	body = binary.AppendUvarint(body, uint64(len(name)))
	body = append(body, name...)

	var extra []byte
	packed := data
	if encrypt {
		salt := bytes.Repeat([]byte{'s'}, 16)
		iv := bytes.Repeat([]byte{'v'}, 16)
		key, check := rar5Keys(w.password, salt)

		rec := binary.AppendUvarint(nil, 1) // file encryption record
		rec = binary.AppendUvarint(rec, 0)  // AES-256
		rec = binary.AppendUvarint(rec, 1)  // check present
		rec = append(rec, 0)
		rec = append(rec, salt...)
		rec = append(rec, iv...)
		rec = append(rec, check...)
		extra = append(binary.AppendUvarint(nil, uint64(len(rec))), rec...)
		packed = cbcEncrypt(key, iv, data)
	}

	w.header(rar5Header(2, body, extra, len(packed)))
	w.buf.Write(packed)
}

func (w *rar5Writer) end() []byte {
	w.header(rar5Header(5, binary.AppendUvarint(nil, 0), nil, 0))
	return w.buf.Bytes()
}

// rar5Keys derives the AES-256 key and the password check value for a salt
// with a KDF count of one.
func rar5Keys(password string, salt []byte) (key, check []byte) {
	prf := hmac.New(sha256.New, []byte(password))
	prf.Write(salt)
	prf.Write([]byte{0, 0, 0, 1})
	t := prf.Sum(nil)
	u := bytes.Clone(t)
	key = bytes.Clone(t)

	// The check value comes from the key after 32 more rounds.
	for i := 0; i < 32; i++ {
		prf.Reset()
		prf.Write(u)
		u = prf.Sum(u[:0])
		for j := range u {
			t[j] ^= u[j]
		}
	}

	check = make([]byte, 8)
	for i, v := range t {
		check[i&7] ^= v
	}
	sum := sha256.Sum256(check)
	return key, append(check, sum[:4]...)
}

// cbcEncrypt zero pads data to the AES block size and encrypts it.
func cbcEncrypt(key, iv, data []byte) []byte {
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, (len(data)+aes.BlockSize-1)/aes.BlockSize*aes.BlockSize)
	copy(out, data)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, out)
	return out
}
