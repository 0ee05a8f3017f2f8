package processor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"fraud_simulator/internal/domain"
)

var ErrMalformedPayload = errors.New("malformed payload")

// payloadFields are the accepted keys, matched exactly. encoding/json would
// otherwise bind "AMOUNT" or "accountid" to the struct fields.
var payloadFields = map[string]struct{}{
	"transactionId": {},
	"accountId":     {},
	"amount":        {},
	"currency":      {},
	"channel":       {},
}

// DecodeTransaction reads exactly one JSON object from r. Unknown fields,
// trailing data and read failures are all reported as ErrMalformedPayload.
func DecodeTransaction(r io.Reader) (domain.TransactionPayload, error) {
	if r == nil {
		return domain.TransactionPayload{}, fmt.Errorf("%w: empty body", ErrMalformedPayload)
	}

	dec := json.NewDecoder(r)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return domain.TransactionPayload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return domain.TransactionPayload{}, fmt.Errorf("%w: unexpected data after object", ErrMalformedPayload)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return domain.TransactionPayload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	for key := range fields {
		if _, ok := payloadFields[key]; !ok {
			return domain.TransactionPayload{}, fmt.Errorf("%w: unknown field %q", ErrMalformedPayload, key)
		}
	}

	strict := json.NewDecoder(bytes.NewReader(raw))
	strict.DisallowUnknownFields()
	var p domain.TransactionPayload
	if err := strict.Decode(&p); err != nil {
		return domain.TransactionPayload{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return p, nil
}

// ClientKey picks the rate-limit identity for a request: the first entry of
// the forwarded-for header, then the real-ip header, then the peer host.
func ClientKey(forwardedFor, realIP, remoteAddr string) string {
	if strings.TrimSpace(forwardedFor) != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(realIP); ip != "" {
		return ip
	}

	addr := strings.TrimSpace(remoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
