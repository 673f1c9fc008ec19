package fmttext

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleDraft() *Draft {
	return NewDraft("chat:42", FormattedText{
		Text: "Hello привет world",
		Entities: []Entity{
			{Type: EntityBold, Offset: 0, Length: 5},
			{Type: EntityTextURL, Offset: 6, Length: 12, URL: "https://example.org"},
			{Type: EntityPre, Offset: 19, Length: 5, Language: "go"},
		},
	})
}

func TestRoundTripSaveLoad(t *testing.T) {
	d := sampleDraft()
	path := filepath.Join(t.TempDir(), "drafts", "roundtrip.draft")
	if err := SaveDraft(path, d, SaveOptions{}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := LoadDraft(path, LoadOptions{})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Key != d.Key {
		t.Fatalf("key mismatch: got %q want %q", loaded.Key, d.Key)
	}
	if loaded.Text.Text != d.Text.Text {
		t.Fatalf("unexpected text payload: %q", loaded.Text.Text)
	}
	if len(loaded.Text.Entities) != 3 {
		t.Fatalf("expected 3 entities, got %#v", loaded.Text.Entities)
	}
	if loaded.Text.Entities[1].URL != "https://example.org" || loaded.Text.Entities[2].Language != "go" {
		t.Fatalf("entity payload mismatch: %#v", loaded.Text.Entities)
	}
}

func TestSealedDraftRoundTrip(t *testing.T) {
	d := sampleDraft()
	path := filepath.Join(t.TempDir(), "sealed.draft")
	opts := SaveOptions{Compression: true, Encryption: EncryptionOptions{Enabled: true, Password: "hunter2"}}
	if err := SaveDraft(path, d, opts); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	info, err := InspectEnvelope(path)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !info.Wrapped || !info.Compressed || !info.Encrypted {
		t.Fatalf("unexpected envelope info: %#v", info)
	}

	if _, err := LoadDraft(path, LoadOptions{}); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if _, err := LoadDraft(path, LoadOptions{Password: "wrong"}); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	loaded, err := LoadDraft(path, LoadOptions{Password: "hunter2"})
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Text.Text != d.Text.Text {
		t.Fatalf("unexpected text payload: %q", loaded.Text.Text)
	}
}

func TestSealedHeaderReadableWithoutPassword(t *testing.T) {
	opts := SaveOptions{Encryption: EncryptionOptions{Enabled: true, Password: "hunter2"}}
	blob, err := MarshalDraft(sampleDraft(), opts)
	if err != nil {
		t.Fatal(err)
	}
	info, err := inspect(blob)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.Key != "chat:42" || info.Entities != 3 || info.Compressed {
		t.Fatalf("unexpected envelope info: %#v", info)
	}

	at := bytes.Index(blob, []byte("chat:42"))
	if at < 0 {
		t.Fatal("key not stored in the clear")
	}
	blob[at+5] = '7'
	if _, err := UnmarshalDraft(blob, LoadOptions{Password: "hunter2"}); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected tampered header to fail authentication, got %v", err)
	}
}

func TestCompressedHeaderMustMatchRecord(t *testing.T) {
	blob, err := MarshalDraft(sampleDraft(), SaveOptions{Compression: true})
	if err != nil {
		t.Fatal(err)
	}
	at := bytes.Index(blob, []byte("chat:42"))
	blob[at+5] = '7'
	if _, err := UnmarshalDraft(blob, LoadOptions{}); !errors.Is(err, ErrInvalidSecureFile) {
		t.Fatalf("expected ErrInvalidSecureFile, got %v", err)
	}
}

func TestInspectPlainDraft(t *testing.T) {
	blob, err := MarshalDraft(sampleDraft(), SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	info, err := inspect(blob)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.Wrapped || info.Key != "chat:42" || info.Entities != 3 {
		t.Fatalf("unexpected envelope info: %#v", info)
	}
}

func TestTruncatedSealIsRejected(t *testing.T) {
	blob, err := MarshalDraft(sampleDraft(), SaveOptions{Compression: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := UnmarshalDraft(blob[:len(sealMagic)+6], LoadOptions{}); !errors.Is(err, ErrInvalidSecureFile) {
		t.Fatalf("expected ErrInvalidSecureFile, got %v", err)
	}
	if _, err := UnmarshalDraft(blob[:len(blob)-1], LoadOptions{}); !errors.Is(err, ErrInvalidSecureFile) {
		t.Fatalf("expected ErrInvalidSecureFile, got %v", err)
	}
}

func TestSaveRequiresPasswordForEncryption(t *testing.T) {
	_, err := MarshalDraft(sampleDraft(), SaveOptions{Encryption: EncryptionOptions{Enabled: true, Password: "  "}})
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	blob := make([]byte, draftHeaderSize)
	copy(blob, "NOT-A-DRAFT-AT-ALL")
	path := filepath.Join(t.TempDir(), "badmagic.draft")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDraft(path, LoadOptions{}); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestLoadRejectsCorruptPayload(t *testing.T) {
	blob, err := MarshalDraft(sampleDraft(), SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	blob[len(blob)-1] ^= 0xFF
	if _, err := UnmarshalDraft(blob, LoadOptions{}); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected ErrChecksum, got %v", err)
	}
}

func TestLoadRejectsUnknownVersion(t *testing.T) {
	blob, err := MarshalDraft(sampleDraft(), SaveOptions{})
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint16(blob[len(DraftMagic):], 9)
	if _, err := UnmarshalDraft(blob, LoadOptions{}); !errors.Is(err, ErrUnsupportedVer) {
		t.Fatalf("expected ErrUnsupportedVer, got %v", err)
	}
}

func TestValidateRejectsOutOfRangeEntity(t *testing.T) {
	ft := FormattedText{Text: "abc", Entities: []Entity{{Type: EntityBold, Offset: 2, Length: 4}}}
	if err := ft.Validate(); !errors.Is(err, ErrEntityRange) {
		t.Fatalf("expected ErrEntityRange, got %v", err)
	}
	ft.Entities[0] = Entity{Type: "blink", Offset: 0, Length: 1}
	if err := ft.Validate(); !errors.Is(err, ErrUnknownEntity) {
		t.Fatalf("expected ErrUnknownEntity, got %v", err)
	}
}

func TestSortEntitiesPutsEnclosingSpanFirst(t *testing.T) {
	es := []Entity{
		{Type: EntityItalic, Offset: 2, Length: 1},
		{Type: EntityBold, Offset: 0, Length: 2},
		{Type: EntityBlockquote, Offset: 0, Length: 5},
	}
	SortEntities(es)
	if es[0].Type != EntityBlockquote || es[1].Type != EntityBold || es[2].Type != EntityItalic {
		t.Fatalf("unexpected order: %#v", es)
	}
}

func TestUTF16Projection(t *testing.T) {
	ft := FormattedText{
		Text:     "a😀b é",
		Entities: []Entity{{Type: EntityBold, Offset: 5, Length: 1}, {Type: EntityItalic, Offset: 7, Length: 2}},
	}
	u := ft.UTF16Entities()
	if u[0].Offset != 3 || u[0].Length != 1 {
		t.Fatalf("unexpected utf16 bold: %#v", u[0])
	}
	if u[1].Offset != 5 || u[1].Length != 1 {
		t.Fatalf("unexpected utf16 italic: %#v", u[1])
	}
	back := FromUTF16(ft.Text, u)
	if back.Entities[0] != ft.Entities[0] || back.Entities[1] != ft.Entities[1] {
		t.Fatalf("utf16 round trip mismatch: %#v", back.Entities)
	}
}
