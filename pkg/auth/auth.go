// Package auth implements the challenge-response handshake run on every new
// connection before any application frame is exchanged. It proves both ends
// hold the same shared key without ever transmitting the key.
//
// Wire contract (both ends must match; messages use the standard frame
// format from pkg/frame):
//
//  1. the accepting side sends a 32-byte random nonce;
//  2. the connecting side replies with HMAC-SHA256(macKey, nonce), where
//     macKey is derived from the shared key via HKDF-SHA256 with salt
//     "ipclink-auth-v1" and info "mac";
//  3. the accepting side answers with the marker "#WELCOME#" on a matching
//     digest, or "#FAILURE#" followed by a close on a mismatch.
//
// A non-matching digest, a malformed or missing welcome marker, or a
// disconnect mid-handshake all surface as ErrAuthFailed. The key itself
// never appears in errors or logs.
package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/ipclink/ipclink/pkg/frame"
)

// ErrAuthFailed reports a failed handshake. The caller closes the
// connection before surfacing it; no application frame is readable on a
// connection that produced this error.
var ErrAuthFailed = errors.New("ipclink: authentication handshake failed")

const (
	nonceSize = 32
	keySize   = 32

	// handshake frames are tiny; cap them independently of the
	// connection's payload limit
	maxHandshakeFrame = 4096

	kdfSalt = "ipclink-auth-v1"
	kdfInfo = "mac"
)

var (
	welcomeMarker = []byte("#WELCOME#")
	failureMarker = []byte("#FAILURE#")
)

// macKey derives the HMAC key from the shared key. Derivation follows the
// usual PSK treatment: the raw key never keys the MAC directly.
func macKey(key []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, key, []byte(kdfSalt), []byte(kdfInfo))
	derived := make([]byte, keySize)
	if _, err := io.ReadFull(kdf, derived); err != nil {
		return nil, fmt.Errorf("derive mac key: %w", err)
	}
	return derived, nil
}

func digest(macKey, nonce []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(nonce)
	return h.Sum(nil)
}

// Challenge runs the accepting side of the handshake over a raw stream.
func Challenge(rw io.ReadWriter, key []byte) error {
	mk, err := macKey(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	if err := frame.Write(rw, nonce, maxHandshakeFrame); err != nil {
		return failed(err)
	}

	reply, err := frame.NewReader(rw, maxHandshakeFrame).Next()
	if err != nil {
		return failed(err)
	}

	if !hmac.Equal(reply, digest(mk, nonce)) {
		// best effort: tell the peer before hanging up
		_ = frame.Write(rw, failureMarker, maxHandshakeFrame)
		return ErrAuthFailed
	}

	if err := frame.Write(rw, welcomeMarker, maxHandshakeFrame); err != nil {
		return failed(err)
	}
	return nil
}

// Answer runs the connecting side of the handshake over a raw stream.
func Answer(rw io.ReadWriter, key []byte) error {
	mk, err := macKey(key)
	if err != nil {
		return err
	}

	r := frame.NewReader(rw, maxHandshakeFrame)

	nonce, err := r.Next()
	if err != nil {
		return failed(err)
	}
	if len(nonce) != nonceSize {
		return ErrAuthFailed
	}

	if err := frame.Write(rw, digest(mk, nonce), maxHandshakeFrame); err != nil {
		return failed(err)
	}

	marker, err := r.Next()
	if err != nil {
		return failed(err)
	}
	if !bytes.Equal(marker, welcomeMarker) {
		return ErrAuthFailed
	}
	return nil
}

// failed folds transport-level errors into ErrAuthFailed while keeping the
// underlying cause visible.
func failed(err error) error {
	if errors.Is(err, ErrAuthFailed) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrAuthFailed, err)
}
