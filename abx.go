// Package abx converts between textual XML and Android Binary XML (ABX),
// the token stream format modern Android uses for system state files under
// /data/system.
package abx

// frameworks/base/core/java/com/android/internal/util/BinaryXmlSerializer.java
const (
	tokenStartDocument         = 0
	tokenEndDocument           = 1
	tokenStartTag              = 2
	tokenEndTag                = 3
	tokenText                  = 4
	tokenCDSect                = 5
	tokenEntityRef             = 6
	tokenIgnorableWhitespace   = 7
	tokenProcessingInstruction = 8
	tokenComment               = 9
	tokenDocDecl               = 10
	tokenAttribute             = 15

	typeNull           = 1 << 4
	typeString         = 2 << 4
	typeStringInterned = 3 << 4
	typeBytesHex       = 4 << 4
	typeBytesBase64    = 5 << 4
	typeInt            = 6 << 4
	typeIntHex         = 7 << 4
	typeLong           = 8 << 4
	typeLongHex        = 9 << 4
	typeFloat          = 10 << 4
	typeDouble         = 11 << 4
	typeBooleanTrue    = 12 << 4
	typeBooleanFalse   = 13 << 4

	tokenCommandMask = 0x0F
	tokenTypeMask    = 0xF0
)

// headerMagic identifies an ABX document, version 0.
var headerMagic = [4]byte{'A', 'B', 'X', 0}

const (
	// maxUnsignedShort caps a single length-prefixed string or byte array.
	maxUnsignedShort = 65535

	// maxPoolSize is the interning capacity; index 0xFFFF is the
	// new-string marker and can never be issued.
	maxPoolSize = 65534
)

const xmlDeclaration = `<?xml version="1.0" encoding="UTF-8"?>`
