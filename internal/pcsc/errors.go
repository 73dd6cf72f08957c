package pcsc

// PC/SC long-code constants, reproduced from the well-known winscard.h
// values the original source switches on in WebCard_errorLookup
// (smart_cards.c). Carried forward per SPEC_FULL.md's "supplemented
// features" — the distilled spec.md only names the three-way
// no-readers/service-stopped/other classification, not the full
// diagnostic table.
const (
	ErrSuccess               uint32 = 0x00000000
	ErrNoReadersAvailable    uint32 = 0x8010002E
	ErrServiceStopped        uint32 = 0x8010001E
	ErrNoService             uint32 = 0x8010001D
	ErrInvalidHandle         uint32 = 0x80100003
	ErrInvalidParameter      uint32 = 0x80100004
	ErrInvalidTarget         uint32 = 0x80100005
	ErrNoMemory              uint32 = 0x80100006
	ErrNoSmartcard           uint32 = 0x8010000C
	ErrUnknownReader         uint32 = 0x80100009
	ErrTimeout               uint32 = 0x8010000A
	ErrSharingViolation      uint32 = 0x8010000B
	ErrNotReady              uint32 = 0x80100010
	ErrInvalidValue          uint32 = 0x80100011
	ErrReaderUnavailable     uint32 = 0x80100017
	ErrCardUnsupported       uint32 = 0x8010001C
	ErrUnsupportedFeature    uint32 = 0x8010001F
	ErrReaderUnsupported     uint32 = 0x8010001A
	ErrRemovedCard           uint32 = 0x80100069
	ErrResetCard             uint32 = 0x80100068
	ErrUnpoweredCard         uint32 = 0x80100067
	ErrUnresponsiveCard      uint32 = 0x80100066
	ErrProtoMismatch         uint32 = 0x8010000F
	ErrSystemCancelled       uint32 = 0x80100012
	ErrNotTransacted         uint32 = 0x80100016
	ErrInsufficientBuffer    uint32 = 0x80100008
	ErrFCommError            uint32 = 0x80100013
	ErrFInternalError        uint32 = 0x80100001
	ErrFUnknownError         uint32 = 0x80100014
	ErrFWaitedTooLong        uint32 = 0x80100007
	ErrPShutdown             uint32 = 0x80100018
	ErrUnknownCard           uint32 = 0x8010000D
	ErrUnknownResMng         uint32 = 0x8010002B
	ErrCancelled             uint32 = 0x80100002
	ErrDuplicateReader       uint32 = 0x8010001B
	ErrNoAccess              uint32 = 0x80100027
	ErrNoDir                 uint32 = 0x80100023
	ErrNoFile                uint32 = 0x80100024
	ErrCardUnresponsive      uint32 = 0x80100066
	ErrCantDispose           uint32 = 0x8010000E
	ErrWriteTooMany          uint32 = 0x80100028
)

// codeStrings maps the codes actually emitted by this package's callers to
// their mnemonic names. The original's table covers roughly forty codes;
// this subset covers the ones the adapter and its callers can realistically
// observe, which is all debug logging ever needs to disambiguate.
var codeStrings = map[uint32]string{
	ErrSuccess:            "SCARD_S_SUCCESS",
	ErrNoReadersAvailable: "SCARD_E_NO_READERS_AVAILABLE",
	ErrServiceStopped:     "SCARD_E_SERVICE_STOPPED",
	ErrNoService:          "SCARD_E_NO_SERVICE",
	ErrInvalidHandle:      "SCARD_E_INVALID_HANDLE",
	ErrInvalidParameter:   "SCARD_E_INVALID_PARAMETER",
	ErrInvalidTarget:      "SCARD_E_INVALID_TARGET",
	ErrNoMemory:           "SCARD_E_NO_MEMORY",
	ErrNoSmartcard:        "SCARD_E_NO_SMARTCARD",
	ErrUnknownReader:      "SCARD_E_UNKNOWN_READER",
	ErrTimeout:            "SCARD_E_TIMEOUT",
	ErrSharingViolation:   "SCARD_E_SHARING_VIOLATION",
	ErrNotReady:           "SCARD_E_NOT_READY",
	ErrInvalidValue:       "SCARD_E_INVALID_VALUE",
	ErrReaderUnavailable:  "SCARD_E_READER_UNAVAILABLE",
	ErrCardUnsupported:    "SCARD_E_CARD_UNSUPPORTED",
	ErrUnsupportedFeature: "SCARD_E_UNSUPPORTED_FEATURE",
	ErrReaderUnsupported:  "SCARD_E_READER_UNSUPPORTED",
	ErrRemovedCard:        "SCARD_W_REMOVED_CARD",
	ErrResetCard:          "SCARD_W_RESET_CARD",
	ErrUnpoweredCard:      "SCARD_W_UNPOWERED_CARD",
	ErrUnresponsiveCard:   "SCARD_W_UNRESPONSIVE_CARD",
	ErrProtoMismatch:      "SCARD_E_PROTO_MISMATCH",
	ErrSystemCancelled:    "SCARD_E_SYSTEM_CANCELLED",
	ErrNotTransacted:      "SCARD_E_NOT_TRANSACTED",
	ErrInsufficientBuffer: "SCARD_E_INSUFFICIENT_BUFFER",
	ErrPShutdown:          "SCARD_P_SHUTDOWN",
	ErrUnknownCard:        "SCARD_E_UNKNOWN_CARD",
	ErrUnknownResMng:      "SCARD_E_UNKNOWN_RES_MNG",
	ErrCancelled:          "SCARD_E_CANCELLED",
	ErrDuplicateReader:    "SCARD_E_DUPLICATE_READER",
	ErrNoAccess:           "SCARD_E_NO_ACCESS",
	ErrNoDir:              "SCARD_E_NO_DIR",
	ErrNoFile:             "SCARD_E_NO_FILE",
	ErrCantDispose:        "SCARD_E_CANT_DISPOSE",
	ErrWriteTooMany:       "SCARD_E_WRITE_TOO_MANY",
}

// LookupCode returns the mnemonic PC/SC error name for code, or an empty
// string if unrecognized (matching WebCard_errorLookup's default case).
func LookupCode(code uint32) string {
	if s, ok := codeStrings[code]; ok {
		return s
	}
	return ""
}

// Classify buckets a raw PC/SC long code into the three-way taxonomy
// spec.md §4.4 describes for ListReaders: no-readers and service-stopped
// are non-fatal "treat as empty list" conditions, everything else is a
// real failure.
func Classify(code uint32) Kind {
	switch code {
	case ErrNoReadersAvailable:
		return KindNoReaders
	case ErrServiceStopped, ErrNoService:
		return KindServiceStopped
	default:
		return KindOther
	}
}
