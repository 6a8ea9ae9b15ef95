package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes.
// Version suffix enables future algorithm migration.
const (
	DomainArtifact = "wlgen/artifact/v1"
	DomainLayout   = "wlgen/layout/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ArtifactHash hashes the rendered bytes of one generated artifact.
func ArtifactHash(data []byte) string {
	return hashWithDomain(DomainArtifact, data)
}

// LayoutHash computes a digest of the identity and opcode assignment of an
// assembled interface list. Two runs with the same hash dispatch identically.
// Only wire-relevant fields take part; summaries never change the hash.
func LayoutHash(ifaces []*Interface) (string, error) {
	entries := make([]any, len(ifaces))
	for i, iface := range ifaces {
		entries[i] = map[string]any{
			"id":       iface.ID,
			"name":     iface.Name,
			"version":  iface.Version,
			"requests": messageSignatures(iface.Requests),
			"events":   messageSignatures(iface.Events),
		}
	}

	data, err := MarshalCanonical(entries)
	if err != nil {
		return "", fmt.Errorf("LayoutHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainLayout, data), nil
}

// messageSignatures renders "name(type,type...)" per message in opcode order.
func messageSignatures(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, msg := range msgs {
		sig := msg.Name + "("
		for j, arg := range msg.Args {
			if j > 0 {
				sig += ","
			}
			sig += string(arg.Type)
		}
		out[i] = sig + ")"
	}
	return out
}
