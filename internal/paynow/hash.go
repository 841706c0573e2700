package paynow

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

// resultFieldOrder is the canonical field order of a Paynow status/result
// message. The signature covers field values concatenated in this order,
// skipping absent fields, followed by the integration key.
var resultFieldOrder = []string{
	"reference",
	"paynowreference",
	"amount",
	"status",
	"pollurl",
	"error",
}

func signValues(ordered []string, values url.Values, integrationKey string) string {
	var b strings.Builder
	for _, field := range ordered {
		if vs, ok := values[field]; ok && len(vs) > 0 {
			b.WriteString(vs[0])
		}
	}
	b.WriteString(integrationKey)

	sum := sha512.Sum512([]byte(b.String()))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// verifyResultHash checks the SHA512 signature of an inbound result
// payload against the integration key.
func verifyResultHash(values url.Values, integrationKey string) error {
	got := values.Get("hash")
	if got == "" {
		return errors.New("missing hash")
	}

	want := signValues(resultFieldOrder, values, integrationKey)
	if !strings.EqualFold(got, want) {
		return errors.New("hash mismatch")
	}
	return nil
}
