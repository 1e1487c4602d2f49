package utils

import "testing"

func TestValidateSignature(t *testing.T) {
	body := []byte(`{"object":"whatsapp_business_account"}`)
	key := []byte("app-secret")

	digest, err := GetMessageDigestOrSignature(body, key)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}

	if !ValidateSignature(body, key, "sha256="+digest) {
		t.Error("expected prefixed signature to validate")
	}
	if !ValidateSignature(body, key, digest) {
		t.Error("expected bare digest to validate")
	}
	if ValidateSignature(body, key, "sha256=deadbeef") {
		t.Error("expected wrong signature to fail")
	}
	if ValidateSignature([]byte("tampered"), key, "sha256="+digest) {
		t.Error("expected tampered body to fail")
	}
	if ValidateSignature(body, []byte("other-secret"), "sha256="+digest) {
		t.Error("expected wrong key to fail")
	}
}
