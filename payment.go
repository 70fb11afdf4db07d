package main

import (
	"fmt"
	"math/rand"
	"strings"
)

// EncryptedPayment is the opaque card payload handed to SubmitPayment.
// The checkout flow never looks inside the encrypted fields.
type EncryptedPayment struct {
	CardNumber        string
	ExpiryMonth       string
	ExpiryYear        string
	SecurityCode      string
	HolderName        string
	DeviceFingerprint string
}

// PaymentEncryptor turns raw card fields into an opaque payload. The
// mock below and a real client-side-encryption implementation are
// interchangeable behind this interface.
type PaymentEncryptor interface {
	Encrypt(card PaymentInfo) (EncryptedPayment, error)
}

const (
	adyenPrefix = "adyenjs_0_1_25$"
	// Fixed EC public key marker seen at the head of every real
	// adyenjs ciphertext.
	adyenKeyMarker = "MEEwEAYHKoZIzj0CAQYFK4EEACIDYgAE"
)

// MockAdyenEncryptor fabricates payloads with the shape of adyenjs
// client-side encryption output. No real cryptography happens here; the
// values only need to pass upstream shape checks.
type MockAdyenEncryptor struct{}

func (MockAdyenEncryptor) Encrypt(card PaymentInfo) (EncryptedPayment, error) {
	if card.CardNumber == "" || card.ExpiryMonth == "" || card.ExpiryYear == "" || card.SecurityCode == "" {
		return EncryptedPayment{}, fmt.Errorf("incomplete card fields")
	}

	return EncryptedPayment{
		CardNumber:        mockCiphertext(64),
		ExpiryMonth:       mockCiphertext(32),
		ExpiryYear:        mockCiphertext(32),
		SecurityCode:      mockCiphertext(32),
		HolderName:        card.HolderName,
		DeviceFingerprint: mockDeviceFingerprint(),
	}, nil
}

const base64ish = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func mockCiphertext(tailLen int) string {
	var b strings.Builder
	b.WriteString(adyenPrefix)
	b.WriteString(adyenKeyMarker)
	for i := 0; i < tailLen; i++ {
		b.WriteByte(base64ish[rand.Intn(len(base64ish))])
	}
	return b.String()
}

// mockDeviceFingerprint mimics the fe80-prefixed device id the real
// risk SDK reports.
func mockDeviceFingerprint() string {
	return fmt.Sprintf("fe80%08x-%04x-%04x-%04x-%012x",
		rand.Uint32(), rand.Intn(0x10000), rand.Intn(0x10000), rand.Intn(0x10000), rand.Uint64()&0xffffffffffff)
}
