// Package gateway implements the wire protocol of the payment gateway: an
// AES-CBC encrypted, Base64 encoded JSON envelope carried in the TradeInfo
// form field. The codec is pure; it never logs and never exposes key material
// in error messages.
package gateway

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// StatusSuccess is the gateway's value for a completed payment. Any other
// status is a non-success outcome and never causes a write.
const StatusSuccess = "SUCCESS"

// PayTimeLayout is the gateway's timestamp format.
const PayTimeLayout = "2006-01-02 15:04:05"

// ErrDecode reports that the ciphertext could not be decrypted into a JSON
// envelope: wrong key/iv, corrupted payload, or malformed Base64.
var ErrDecode = errors.New("gateway: payload decode failed")

// ValidationError reports a well-formed envelope missing required fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "gateway: missing required fields: " + strings.Join(e.Fields, ", ")
}

// PaymentNotification is the decoded result of an asynchronous payment
// callback. It is ephemeral and never persisted as-is.
type PaymentNotification struct {
	Status        string
	Message       string
	OrderNo       string
	Amount        int64
	PaidAt        time.Time // zero when the gateway omitted PayTime
	TradeNo       string
	PaymentMethod string
}

// Success reports whether the notification describes a completed payment.
func (n PaymentNotification) Success() bool { return n.Status == StatusSuccess }

// tradeEnvelope mirrors the gateway's JSON payload. Unknown fields are
// ignored; Amt is a pointer so absence can be told apart from zero.
type tradeEnvelope struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Result  tradeResult `json:"Result"`
}

type tradeResult struct {
	MerchantOrderNo string `json:"MerchantOrderNo"`
	Amt             *int64 `json:"Amt"`
	PayTime         string `json:"PayTime"`
	TradeNo         string `json:"TradeNo"`
	PaymentType     string `json:"PaymentType"`
}

// CheckoutInfo is the outbound envelope posted to the gateway when a payment
// attempt is created.
type CheckoutInfo struct {
	MerchantID      string `json:"MerchantID"`
	MerchantOrderNo string `json:"MerchantOrderNo"`
	Amt             int64  `json:"Amt"`
	ItemDesc        string `json:"ItemDesc"`
	Email           string `json:"Email"`
	TimeStamp       int64  `json:"TimeStamp"`
	NotifyURL       string `json:"NotifyURL,omitempty"`
}

// Codec encrypts and decrypts TradeInfo payloads with a fixed key and IV
// sourced from configuration.
type Codec struct {
	key []byte
	iv  []byte
}

// NewCodec validates the cipher parameters. The key must be 16, 24 or 32
// bytes; the IV must match the AES block size.
func NewCodec(key, iv string) (*Codec, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("gateway: hash key must be 16, 24 or 32 bytes, got %d", len(key))
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("gateway: hash iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return &Codec{key: []byte(key), iv: []byte(iv)}, nil
}

// Encrypt marshals v to JSON and returns the Base64 AES-CBC ciphertext.
func (c *Codec) Encrypt(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("gateway: marshal payload: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("gateway: init cipher: %w", err)
	}

	padded := padPKCS7(plain, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, c.iv).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptNotification decrypts a TradeInfo ciphertext and decodes it into a
// typed PaymentNotification. The decrypted text may carry trailing padding
// bytes after the JSON payload, so it is truncated at the last closing brace
// before parsing. Returns an error wrapping ErrDecode when decryption or
// parsing fails, or a *ValidationError when required fields are missing.
func (c *Codec) DecryptNotification(tradeInfo string) (PaymentNotification, error) {
	var n PaymentNotification

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(tradeInfo))
	if err != nil {
		return n, fmt.Errorf("%w: invalid base64", ErrDecode)
	}
	if len(raw) == 0 || len(raw)%aes.BlockSize != 0 {
		return n, fmt.Errorf("%w: ciphertext length %d not a multiple of block size", ErrDecode, len(raw))
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return n, fmt.Errorf("%w: init cipher", ErrDecode)
	}
	plain := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, c.iv).CryptBlocks(plain, raw)

	end := bytes.LastIndexByte(plain, '}')
	if end < 0 {
		return n, fmt.Errorf("%w: no JSON object in decrypted payload", ErrDecode)
	}

	var env tradeEnvelope
	if err := json.Unmarshal(plain[:end+1], &env); err != nil {
		return n, fmt.Errorf("%w: parse envelope", ErrDecode)
	}

	var missing []string
	if env.Status == "" {
		missing = append(missing, "Status")
	}
	if env.Result.MerchantOrderNo == "" {
		missing = append(missing, "Result.MerchantOrderNo")
	}
	if env.Result.Amt == nil {
		missing = append(missing, "Result.Amt")
	}
	if len(missing) > 0 {
		return n, &ValidationError{Fields: missing}
	}

	n = PaymentNotification{
		Status:        env.Status,
		Message:       env.Message,
		OrderNo:       env.Result.MerchantOrderNo,
		Amount:        *env.Result.Amt,
		TradeNo:       env.Result.TradeNo,
		PaymentMethod: env.Result.PaymentType,
	}
	if env.Result.PayTime != "" {
		paidAt, err := time.ParseInLocation(PayTimeLayout, env.Result.PayTime, time.UTC)
		if err != nil {
			return PaymentNotification{}, &ValidationError{Fields: []string{"Result.PayTime"}}
		}
		n.PaidAt = paidAt
	}
	return n, nil
}

// padPKCS7 appends PKCS#7 padding up to the block size.
func padPKCS7(b []byte, blockSize int) []byte {
	padLen := blockSize - len(b)%blockSize
	return append(b, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}
