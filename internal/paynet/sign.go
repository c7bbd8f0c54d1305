package paynet

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// Request signatures are SHA-1 over a fixed concatenation of fields with
// the merchant control key appended, no separators. The field order is part
// of the wire contract and must not change.

// SignSale computes the signature for a sale request. Canonical order:
// endpoint id, client order id, amount in minor units, customer email.
func SignSale(endpointID, clientOrderID string, amountMinor int64, email, controlKey string) string {
	var b strings.Builder
	b.WriteString(endpointID)
	b.WriteString(clientOrderID)
	b.WriteString(strconv.FormatInt(amountMinor, 10))
	b.WriteString(email)
	return signString(b.String(), controlKey)
}

// SignStatus computes the signature for status and return requests.
// Canonical order: merchant login, client order id, gateway order id.
func SignStatus(login, clientOrderID, paynetOrderID, controlKey string) string {
	var b strings.Builder
	b.WriteString(login)
	b.WriteString(clientOrderID)
	b.WriteString(paynetOrderID)
	return signString(b.String(), controlKey)
}

func signString(s, controlKey string) string {
	sum := sha1.Sum([]byte(s + controlKey))
	return hex.EncodeToString(sum[:])
}

// MinorUnits converts a decimal amount to an integer count of minor
// currency units. The gateway signs over amount*100 truncated, never
// rounded: 19.999 must become 1999. The small bias only compensates for
// binary float noise (4.10*100 = 409.999...) and cannot flip a genuine
// fraction.
func MinorUnits(amount float64) int64 {
	return int64(math.Trunc(amount*100 + 1e-6))
}
