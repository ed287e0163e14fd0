// Package handlers implements the HTTP endpoints.
package handlers

import (
	"time"

	"github.com/papersynth/papersynth/internal/infrastructure/signing"
)

// ArtifactURLBuilder mints download URLs for workspace artifacts: signed
// references when a signer is configured, plain static paths otherwise.
type ArtifactURLBuilder struct {
	signer *signing.Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewArtifactURLBuilder builds URLs signed with signer for ttl. A nil signer
// produces unsigned /static paths.
func NewArtifactURLBuilder(signer *signing.Signer, ttl time.Duration) *ArtifactURLBuilder {
	return &ArtifactURLBuilder{signer: signer, ttl: ttl, now: time.Now}
}

// URL returns the download URL for one artifact in one workspace.
func (b *ArtifactURLBuilder) URL(workspaceID, file string) string {
	if b.signer == nil {
		return "/static/" + workspaceID + "/" + file
	}
	ref := b.signer.Issue(workspaceID, file, b.ttl, b.now())
	return "/download?" + ref.Query().Encode()
}

// Signed reports whether minted URLs carry signatures.
func (b *ArtifactURLBuilder) Signed() bool {
	return b.signer != nil
}
