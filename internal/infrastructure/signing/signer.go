// Package signing issues and verifies HMAC-signed download references.
package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Verdict is the outcome of verifying a signed reference.
type Verdict int

const (
	// Allow means the signature is valid and the reference has not expired.
	Allow Verdict = iota
	// Expired means the signature is valid but the expiry has passed.
	Expired
	// Invalid means the signature does not match.
	Invalid
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Expired:
		return "expired"
	default:
		return "invalid"
	}
}

// Reference is a signed claim that one file in one workspace may be
// downloaded until the expiry time.
type Reference struct {
	WorkspaceID string
	File        string
	ExpiresAt   int64
	Signature   string
}

// Query encodes the reference as download URL query parameters.
func (r Reference) Query() url.Values {
	q := url.Values{}
	q.Set("rid", r.WorkspaceID)
	q.Set("file", r.File)
	q.Set("exp", strconv.FormatInt(r.ExpiresAt, 10))
	q.Set("sig", r.Signature)
	return q
}

// Signer issues and verifies references with a single HMAC-SHA256 key.
type Signer struct {
	key []byte
}

// NewSigner builds a signer from the raw key material.
func NewSigner(key string) (*Signer, error) {
	if key == "" {
		return nil, fmt.Errorf("signing key is empty")
	}
	return &Signer{key: []byte(key)}, nil
}

// Issue signs a download reference valid for ttl from now.
func (s *Signer) Issue(workspaceID, file string, ttl time.Duration, now time.Time) Reference {
	exp := now.Add(ttl).Unix()
	return Reference{
		WorkspaceID: workspaceID,
		File:        file,
		ExpiresAt:   exp,
		Signature:   s.sign(workspaceID, file, exp),
	}
}

// Verify checks the reference's signature and expiry. The signature is
// compared in constant time and is checked before the expiry so that a forged
// reference never reads as merely expired.
func (s *Signer) Verify(ref Reference, now time.Time) Verdict {
	want := s.sign(ref.WorkspaceID, ref.File, ref.ExpiresAt)
	if !hmac.Equal([]byte(want), []byte(ref.Signature)) {
		return Invalid
	}
	if now.Unix() > ref.ExpiresAt {
		return Expired
	}
	return Allow
}

func (s *Signer) sign(workspaceID, file string, exp int64) string {
	mac := hmac.New(sha256.New, s.key)
	fmt.Fprintf(mac, "%s:%s:%d", workspaceID, file, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseReference rebuilds a reference from download query parameters. An
// unparsable expiry yields a reference that can never verify.
func ParseReference(rid, file, exp, sig string) Reference {
	expires, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		expires = -1
	}
	return Reference{
		WorkspaceID: rid,
		File:        file,
		ExpiresAt:   expires,
		Signature:   sig,
	}
}
