// Package transceiver implements chained APDU transmission (spec.md §4.5):
// single-shot transmit plus the ISO-7816 "61 xx — more data available"
// continuation pattern, concatenating multi-block responses into one
// uppercase hex string.
//
// Ported byte-for-byte from SCardConnection_transceiveSingle and the GET
// RESPONSE loop in original_source/native/src/smart_cards.c.
package transceiver

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/ianremillard/webcardd/internal/pcsc"
	"github.com/ianremillard/webcardd/internal/registry"
)

// MaxAPDUSize is the output buffer capacity the original reserves for a
// single transmit, per spec.md §4.5.
const MaxAPDUSize = 0x7FFF

// protocolOf maps a registry Protocol to the pcsc package's Protocol, since
// the two packages intentionally don't share a type (registry describes
// the model, pcsc describes the wire contract to the resource manager).
func protocolOf(p registry.Protocol) pcsc.Protocol {
	switch p {
	case registry.ProtocolT0:
		return pcsc.ProtocolT0
	case registry.ProtocolT1:
		return pcsc.ProtocolT1
	default:
		return pcsc.ProtocolNone
	}
}

// Single performs one PC/SC transmit over the connection's active
// protocol.
func Single(ctx context.Context, adapter pcsc.Adapter, conn *registry.Connection, apdu []byte) ([]byte, error) {
	return adapter.Transmit(ctx, conn.Handle, protocolOf(conn.ActiveProtocol), apdu)
}

// Chained transmits apdu and, while the response's Status Word is 61xx,
// fetches the remaining bytes with GET RESPONSE, returning the full
// concatenated response as uppercase hex: every intermediate response with
// its SW1/SW2 stripped, followed by the final response including its
// terminal SW1/SW2 (spec.md §4.5, §8's chained-transceiver invariant).
func Chained(ctx context.Context, adapter pcsc.Adapter, conn *registry.Connection, apdu []byte) (string, error) {
	var hexBuilder strings.Builder

	response, err := Single(ctx, adapter, conn, apdu)
	if err != nil {
		return "", err
	}

	for len(response) >= 2 && response[len(response)-2] == 0x61 {
		sw2 := response[len(response)-1]
		hexBuilder.WriteString(strings.ToUpper(hex.EncodeToString(response[:len(response)-2])))

		getResponse := []byte{0x00, 0xC0, 0x00, 0x00, sw2}
		response, err = Single(ctx, adapter, conn, getResponse)
		if err != nil {
			return "", err
		}
	}

	hexBuilder.WriteString(strings.ToUpper(hex.EncodeToString(response)))
	return hexBuilder.String(), nil
}
