package xlsx

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the open and save paths.  Wrapped errors carry
// additional context; test with [errors.Is].
var (
	// ErrEncrypted is returned when the file is an encrypted OOXML container
	// (a CFB compound file with an EncryptedPackage stream).  Decryption is a
	// separate concern; the engine fails fast rather than parsing ciphertext.
	ErrEncrypted = errors.New("xlsx: workbook is encrypted")

	// ErrLegacyFormat is returned when the file is a CFB compound file
	// without an encrypted package, i.e. a legacy binary workbook (.xls),
	// which this module does not read.
	ErrLegacyFormat = errors.New("xlsx: legacy OLE workbook, not an OOXML package")

	// ErrUnsupportedExt is returned by SaveAs for an output extension with
	// no known workbook content type.
	ErrUnsupportedExt = errors.New("xlsx: unsupported output extension")

	// ErrSheetNotFound is returned when a named sheet does not exist.
	ErrSheetNotFound = errors.New("xlsx: sheet not found")

	// ErrSheetExists is returned when creating or renaming a sheet to a name
	// already in use.  Sheet names are case-sensitive.
	ErrSheetExists = errors.New("xlsx: sheet already exists")
)

// LimitError reports that the ZIP safety gate rejected an archive before any
// XML parsing, with the offending value and the configured bound so callers
// can raise the limit deliberately.
type LimitError struct {
	// Kind is "entry count" or "decompressed size".
	Kind string
	// Actual is the observed value.
	Actual int64
	// Limit is the configured bound that was exceeded.
	Limit int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("xlsx: archive %s %d exceeds configured limit %d", e.Kind, e.Actual, e.Limit)
}
