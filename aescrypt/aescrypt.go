// Copyright 2026 The sleuthgo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package aescrypt implements the AES primitive used for EWFX encrypted
// media: ECB and CBC for ordinary block/chain encrypt-decrypt, and the
// counter-mode construction EWFX calls "CCM" for per-chunk decryption.
//
// The block cipher itself (key schedule, S-box, round function) is
// crypto/aes; this package only adds the thin, format-specific layer on
// top of it that the standard library doesn't provide: a bare ECB call
// (deliberately absent from crypto/cipher because ECB is unsafe for
// general use, but required here because EWFX's CCM construction needs
// the raw block primitive) and the non-standard counter increment EWFX
// uses (byte 15 wraps modulo 256 with no carry into earlier bytes, unlike
// cipher.NewCTR's full-width big-endian counter).
package aescrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

var errIVRange = errors.New("iv length out of range 1..14")

// Mode selects the direction of a keyed operation.
type Mode int

const (
	ModeEncrypt Mode = iota
	ModeDecrypt
)

// Engine holds an expanded AES key schedule for one key and key size.
// An Engine is not safe for concurrent use from multiple goroutines
// without external synchronization, matching the single-threaded
// contract of the media layer that owns it (spec §5).
type Engine struct {
	block   cipher.Block
	keyBits int
}

// NewEngine validates and schedules key. The mode argument is accepted
// but not used: crypto/aes.NewCipher produces a schedule usable for
// both directions, since ECB/CBC explicitly choose Encrypt or Decrypt
// per call.
func NewEngine(mode Mode, keyBits int, key []byte) (*Engine, error) {
	switch keyBits {
	case 128, 192, 256:
	default:
		return nil, fmt.Errorf("aescrypt: unsupported key size %d bits", keyBits)
	}
	if len(key) != keyBits/8 {
		return nil, fmt.Errorf("aescrypt: key length %d does not match %d-bit key", len(key), keyBits)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aescrypt: %w", err)
	}
	return &Engine{block: block, keyBits: keyBits}, nil
}

// ECB en/decrypts exactly one 16-byte block.
func (e *Engine) ECB(mode Mode, in, out []byte) error {
	if len(in) != aes.BlockSize || len(out) != aes.BlockSize {
		return fmt.Errorf("aescrypt: ecb requires exactly %d-byte blocks", aes.BlockSize)
	}
	switch mode {
	case ModeEncrypt:
		e.block.Encrypt(out, in)
	case ModeDecrypt:
		e.block.Decrypt(out, in)
	default:
		return fmt.Errorf("aescrypt: unsupported mode %d", mode)
	}
	return nil
}

// CBC en/decrypts a positive multiple of 16 bytes, chaining from iv.
func (e *Engine) CBC(mode Mode, iv, in, out []byte) error {
	if len(iv) != aes.BlockSize {
		return fmt.Errorf("aescrypt: cbc iv must be %d bytes", aes.BlockSize)
	}
	if len(in) == 0 || len(in)%aes.BlockSize != 0 {
		return fmt.Errorf("aescrypt: cbc input length %d is not a positive multiple of %d", len(in), aes.BlockSize)
	}
	if len(out) != len(in) {
		return fmt.Errorf("aescrypt: cbc output length must match input length")
	}
	switch mode {
	case ModeEncrypt:
		cipher.NewCBCEncrypter(e.block, iv).CryptBlocks(out, in)
	case ModeDecrypt:
		cipher.NewCBCDecrypter(e.block, iv).CryptBlocks(out, in)
	default:
		return fmt.Errorf("aescrypt: unsupported mode %d", mode)
	}
	return nil
}

// CCMDecrypt decrypts in using the EWFX counter-mode construction: the
// 16-byte internal IV has byte 0 set to 15-len(iv)-1, bytes 1..len(iv)
// carry iv, the remaining bytes up to 14 are zero, and byte 15 is a
// counter that starts at 0 and is incremented modulo 256 (wrapping, no
// carry) once per 16-byte keystream block. Each keystream block is the
// AES-ECB encryption of the internal IV, XORed into the ciphertext —
// this is the only direction the format defines (see spec §4.1 and
// §9: write-side CCM encryption was never implemented upstream).
func (e *Engine) CCMDecrypt(iv []byte, in []byte) ([]byte, error) {
	if len(iv) == 0 || len(iv) > 14 {
		return nil, fmt.Errorf("aescrypt: %w: length %d", errIVRange, len(iv))
	}
	internal := make([]byte, aes.BlockSize)
	internal[0] = byte(15 - len(iv) - 1)
	copy(internal[1:1+len(iv)], iv)

	out := make([]byte, len(in))
	keystream := make([]byte, aes.BlockSize)
	for offset := 0; offset < len(in); offset += aes.BlockSize {
		e.block.Encrypt(keystream, internal)
		n := aes.BlockSize
		if remaining := len(in) - offset; remaining < n {
			n = remaining
		}
		for i := 0; i < n; i++ {
			out[offset+i] = in[offset+i] ^ keystream[i]
		}
		internal[15]++ // wraps modulo 256 with no carry into byte 14, matching libcaes
	}
	return out, nil
}
