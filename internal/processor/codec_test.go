package processor

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeTransaction_Valid(t *testing.T) {
	body := `{"transactionId":"t1","accountId":"a1","amount":1500,"currency":"USD","channel":"card-not-present"}`

	p, err := DecodeTransaction(strings.NewReader(body))

	require.NoError(t, err)
	assert.Equal(t, "t1", p.TransactionID)
	assert.Equal(t, "a1", p.AccountID)
	assert.Equal(t, 1500.0, p.Amount)
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, "card-not-present", p.Channel)
}

func TestDecodeTransaction_MissingFieldsDecode(t *testing.T) {
	p, err := DecodeTransaction(strings.NewReader(`{"currency":"USD"}`))

	require.NoError(t, err, "missing fields are a validation concern")
	assert.Empty(t, p.TransactionID)
	assert.Zero(t, p.Amount)
}

func TestDecodeTransaction_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"not json", "amount=5"},
		{"truncated", `{"transactionId":"t1"`},
		{"unknown field", `{"transactionId":"t1","merchant":"m1"}`},
		{"upper-case keys", `{"TRANSACTIONID":"t1","AccountId":"a1","AMOUNT":1500,"Currency":"USD","CHANNEL":"card-not-present"}`},
		{"one key off by case", `{"transactionId":"t1","accountId":"a1","amount":1500,"currency":"USD","Channel":"pos"}`},
		{"number", `42`},
		{"wrong type", `{"amount":"1000"}`},
		{"array", `[]`},
		{"trailing object", `{"transactionId":"t1"}{"transactionId":"t2"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTransaction(strings.NewReader(tt.body))
			assert.True(t, errors.Is(err, ErrMalformedPayload), "got %v", err)
		})
	}
}

func TestDecodeTransaction_NilReader(t *testing.T) {
	_, err := DecodeTransaction(nil)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		remoteAddr   string
		want         string
	}{
		{"forwarded wins", "203.0.113.7", "198.51.100.1", "10.0.0.1:5000", "203.0.113.7"},
		{"first forwarded entry trimmed", " 203.0.113.7 , 10.1.1.1, 10.2.2.2", "", "10.0.0.1:5000", "203.0.113.7"},
		{"blank forwarded falls through", "   ", "198.51.100.1", "10.0.0.1:5000", "198.51.100.1"},
		{"real ip trimmed", "", " 198.51.100.1 ", "10.0.0.1:5000", "198.51.100.1"},
		{"peer host", "", "", "10.0.0.1:5000", "10.0.0.1"},
		{"peer ipv6", "", "", "[::1]:8080", "::1"},
		{"peer without port", "", "", "10.0.0.1", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientKey(tt.forwardedFor, tt.realIP, tt.remoteAddr))
		})
	}
}
