package fmttext

import (
	"bytes"
	"compress/zlib"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	DraftMagic     = "RICHINPUT-DRAFT"
	DraftVersionV1 = uint16(1)

	draftHeaderSize = len(DraftMagic) + 2 + 4 + 4

	sealMagic     = "RICHINPUT-SEALED"
	sealVersion   = uint16(1)
	sealCompress  = uint16(1 << 0)
	sealEncrypt   = uint16(1 << 1)
	saltSize      = 16
	nonceSize     = 12
	kdfIterations = 200000
)

// Draft is an unsent composer state persisted between sessions.
type Draft struct {
	Key          string
	ModifiedUnix int64
	Text         FormattedText
}

type EncryptionOptions struct {
	Enabled  bool
	Password string
}

type SaveOptions struct {
	Compression bool
	Encryption  EncryptionOptions
}

type LoadOptions struct {
	Password string
}

// EnvelopeInfo is what a draft file tells about itself without a
// password. A sealed file keeps its key and entity count in the clear,
// authenticated when the body is encrypted.
type EnvelopeInfo struct {
	Wrapped     bool
	Compressed  bool
	Encrypted   bool
	EnvelopeVer uint16
	Key         string
	Entities    int
}

var (
	ErrInvalidMagic      = errors.New("fmttext: invalid draft magic")
	ErrUnsupportedVer    = errors.New("fmttext: unsupported draft version")
	ErrChecksum          = errors.New("fmttext: draft checksum mismatch")
	ErrMalformedDraft    = errors.New("fmttext: malformed draft")
	ErrPasswordRequired  = errors.New("fmttext: password required")
	ErrInvalidPassword   = errors.New("fmttext: invalid password")
	ErrInvalidSecureFile = errors.New("fmttext: invalid sealed draft")
)

func NewDraft(key string, text FormattedText) *Draft {
	return &Draft{Key: key, ModifiedUnix: time.Now().Unix(), Text: text.Clone()}
}

func SaveDraft(path string, d *Draft, opts SaveOptions) error {
	blob, err := MarshalDraft(d, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func LoadDraft(path string, opts LoadOptions) (*Draft, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalDraft(b, opts)
}

func InspectEnvelope(path string) (EnvelopeInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return inspect(b)
}

func MarshalDraft(d *Draft, opts SaveOptions) ([]byte, error) {
	if d == nil {
		return nil, errors.New("fmttext: draft is nil")
	}
	if d.ModifiedUnix == 0 {
		d.ModifiedUnix = time.Now().Unix()
	}
	if err := d.Text.Validate(); err != nil {
		return nil, err
	}
	if opts.Encryption.Enabled && strings.TrimSpace(opts.Encryption.Password) == "" {
		return nil, ErrPasswordRequired
	}
	blob := encodeDraft(d)
	if !opts.Compression && !opts.Encryption.Enabled {
		return blob, nil
	}
	h := sealHeader{key: d.Key, entities: uint32(len(d.Text.Entities))}
	return h.seal(blob, opts)
}

func UnmarshalDraft(b []byte, opts LoadOptions) (*Draft, error) {
	var (
		h      sealHeader
		sealed = hasSealMagic(b)
		err    error
	)
	if sealed {
		if h, b, err = unseal(b, opts.Password); err != nil {
			return nil, err
		}
	}
	d, err := decodeDraft(b)
	if err != nil {
		return nil, err
	}
	if sealed && (d.Key != h.key || len(d.Text.Entities) != int(h.entities)) {
		return nil, fmt.Errorf("%w: header does not match draft", ErrInvalidSecureFile)
	}
	if err := d.Text.Validate(); err != nil {
		return nil, fmt.Errorf("fmttext: draft %q: %w", d.Key, err)
	}
	return d, nil
}


func encodeDraft(d *Draft) []byte {
	var rec recordWriter
	rec.str(d.Key)
	rec.u64(uint64(d.ModifiedUnix))
	rec.str(d.Text.Text)
	rec.u32(uint32(len(d.Text.Entities)))
	for _, e := range d.Text.Entities {
		rec.str(string(e.Type))
		rec.u32(uint32(e.Offset))
		rec.u32(uint32(e.Length))
		rec.str(e.URL)
		rec.str(e.Language)
		rec.str(e.UserID)
		rec.str(e.DocumentID)
	}

	out := recordWriter{buf: make([]byte, 0, draftHeaderSize+len(rec.buf))}
	out.raw([]byte(DraftMagic))
	out.u16(DraftVersionV1)
	out.u32(uint32(len(rec.buf)))
	out.u32(crc32.ChecksumIEEE(rec.buf))
	out.raw(rec.buf)
	return out.buf
}

func decodeDraft(b []byte) (*Draft, error) {
	if len(b) < draftHeaderSize || !bytes.HasPrefix(b, []byte(DraftMagic)) {
		return nil, ErrInvalidMagic
	}
	hdr := recordReader{b: b[len(DraftMagic):draftHeaderSize], fail: ErrMalformedDraft}
	if v := hdr.u16("version"); v != DraftVersionV1 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVer, v)
	}
	size, sum := hdr.u32("size"), hdr.u32("checksum")
	body := b[draftHeaderSize:]
	if uint64(len(body)) != uint64(size) {
		return nil, ErrMalformedDraft
	}
	if crc32.ChecksumIEEE(body) != sum {
		return nil, ErrChecksum
	}

	r := recordReader{b: body, fail: ErrMalformedDraft}
	d := &Draft{Key: r.str("key")}
	d.ModifiedUnix = int64(r.u64("timestamp"))
	d.Text.Text = r.str("text")
	count := int(r.u32("entity count"))
	for i := 0; i < count && r.err == nil; i++ {
		what := fmt.Sprintf("entity %d", i)
		e := Entity{Type: EntityType(r.str(what))}
		e.Offset = int(r.u32(what))
		e.Length = int(r.u32(what))
		e.URL = r.str(what)
		e.Language = r.str(what)
		e.UserID = r.str(what)
		e.DocumentID = r.str(what)
		d.Text.Entities = append(d.Text.Entities, e)
	}
	if r.err != nil {
		return nil, r.err
	}
	return d, nil
}

// recordWriter appends little-endian fields; strings are length-prefixed.
type recordWriter struct{ buf []byte }

func (w *recordWriter) raw(p []byte) { w.buf = append(w.buf, p...) }
func (w *recordWriter) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *recordWriter) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *recordWriter) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *recordWriter) str(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

// recordReader consumes what recordWriter wrote. The first short read
// sticks in err, wrapped in fail, and later reads return zero values.
type recordReader struct {
	b    []byte
	fail error
	err  error
}

func (r *recordReader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.b) < n {
		r.err = fmt.Errorf("%w: %s", r.fail, what)
		return nil
	}
	p := r.b[:n]
	r.b = r.b[n:]
	return p
}

func (r *recordReader) u16(what string) uint16 {
	if p := r.take(2, what); p != nil {
		return binary.LittleEndian.Uint16(p)
	}
	return 0
}

func (r *recordReader) u32(what string) uint32 {
	if p := r.take(4, what); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

func (r *recordReader) u64(what string) uint64 {
	if p := r.take(8, what); p != nil {
		return binary.LittleEndian.Uint64(p)
	}
	return 0
}

func (r *recordReader) str(what string) string {
	n := r.u32(what)
	return string(r.take(int(n), what))
}

// sealHeader prefixes a compressed or encrypted draft record:
//
//	magic | version u16 | flags u16 | key | entities u32 | salt | nonce | body length u64 | body
//
// Everything before the body length is the AEAD additional data.
type sealHeader struct {
	flags    uint16
	key      string
	entities uint32
	salt     [saltSize]byte
	nonce    [nonceSize]byte
}

func hasSealMagic(b []byte) bool { return bytes.HasPrefix(b, []byte(sealMagic)) }

func (h *sealHeader) marshal() []byte {
	var w recordWriter
	w.raw([]byte(sealMagic))
	w.u16(sealVersion)
	w.u16(h.flags)
	w.str(h.key)
	w.u32(h.entities)
	w.raw(h.salt[:])
	w.raw(h.nonce[:])
	return w.buf
}

func (h sealHeader) seal(record []byte, opts SaveOptions) ([]byte, error) {
	body := record
	if opts.Compression {
		h.flags |= sealCompress
		var err error
		if body, err = deflate(body); err != nil {
			return nil, err
		}
	}
	if opts.Encryption.Enabled {
		h.flags |= sealEncrypt
		if _, err := io.ReadFull(rand.Reader, h.salt[:]); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(rand.Reader, h.nonce[:]); err != nil {
			return nil, err
		}
	}
	prefix := h.marshal()
	if opts.Encryption.Enabled {
		aead, err := gcmFor(opts.Encryption.Password, h.salt[:])
		if err != nil {
			return nil, err
		}
		body = aead.Seal(nil, h.nonce[:], body, prefix)
	}
	out := recordWriter{buf: prefix}
	out.u64(uint64(len(body)))
	out.raw(body)
	return out.buf, nil
}

// parseSeal splits a sealed file into its header, the authenticated
// prefix and the body.
func parseSeal(b []byte) (h sealHeader, prefix, body []byte, err error) {
	r := recordReader{b: b, fail: ErrInvalidSecureFile}
	r.take(len(sealMagic), "magic")
	if v := r.u16("version"); r.err == nil && v != sealVersion {
		return h, nil, nil, fmt.Errorf("%w: sealed envelope version %d", ErrUnsupportedVer, v)
	}
	h.flags = r.u16("flags")
	h.key = r.str("key")
	h.entities = r.u32("entities")
	copy(h.salt[:], r.take(saltSize, "salt"))
	copy(h.nonce[:], r.take(nonceSize, "nonce"))
	prefix = b[:len(b)-len(r.b)]
	n := r.u64("body length")
	if r.err != nil {
		return h, nil, nil, r.err
	}
	if uint64(len(r.b)) != n {
		return h, nil, nil, fmt.Errorf("%w: body length", ErrInvalidSecureFile)
	}
	return h, prefix, r.b, nil
}

func unseal(b []byte, password string) (sealHeader, []byte, error) {
	h, prefix, body, err := parseSeal(b)
	if err != nil {
		return h, nil, err
	}
	if h.flags&sealEncrypt != 0 {
		if strings.TrimSpace(password) == "" {
			return h, nil, ErrPasswordRequired
		}
		aead, err := gcmFor(password, h.salt[:])
		if err != nil {
			return h, nil, err
		}
		if body, err = aead.Open(nil, h.nonce[:], body, prefix); err != nil {
			return h, nil, ErrInvalidPassword
		}
	}
	if h.flags&sealCompress != 0 {
		if body, err = inflate(body); err != nil {
			return h, nil, err
		}
	}
	return h, body, nil
}

// inspect never needs a password. Plain drafts report their key and
// entity count when the record parses.
func inspect(b []byte) (EnvelopeInfo, error) {
	if !hasSealMagic(b) {
		d, err := decodeDraft(b)
		if err != nil {
			return EnvelopeInfo{}, nil
		}
		return EnvelopeInfo{Key: d.Key, Entities: len(d.Text.Entities)}, nil
	}
	h, _, _, err := parseSeal(b)
	if err != nil {
		return EnvelopeInfo{}, err
	}
	return EnvelopeInfo{
		Wrapped:     true,
		Compressed:  h.flags&sealCompress != 0,
		Encrypted:   h.flags&sealEncrypt != 0,
		EnvelopeVer: sealVersion,
		Key:         h.key,
		Entities:    int(h.entities),
	}, nil
}

func gcmFor(password string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(pbkdf2.Key([]byte(password), salt, kdfIterations, 32, sha256.New))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func deflate(in []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(in); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func inflate(in []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(in))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecureFile, err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
