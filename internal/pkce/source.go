package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"math/big"
	"strings"
)

const (
	MethodS256 = "S256"

	// VerifierLength is the length of every generated code verifier.
	VerifierLength = 128
)

const verifierAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

var urlSafe = strings.NewReplacer("+", "-", "/", "_", "=", "")

type PKCE struct {
	Verifier  string
	Challenge string
	Method    string
}

type Source struct{}

func (p Source) randString(n int, letters string) string {
	limit := big.NewInt(int64(len(letters)))

	ret := make([]byte, n)
	for i := range n {
		num, err := rand.Int(rand.Reader, limit)
		if err != nil {
			// crypto/rand never fails on supported platforms.
			panic("pkce: reading random source: " + err.Error())
		}
		ret[i] = letters[num.Int64()]
	}

	return string(ret)
}

// CodeVerifier returns a fresh code verifier. It is meant for a single
// authorize/token round-trip and must not be persisted.
func (p Source) CodeVerifier() string {
	return p.randString(VerifierLength, verifierAlphabet)
}

// Challenge derives the S256 code challenge for the verifier.
func (p Source) Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return urlSafe.Replace(base64.StdEncoding.EncodeToString(sum[:]))
}

func (p Source) PKCE() PKCE {
	verifier := p.CodeVerifier()

	return PKCE{
		Verifier:  verifier,
		Challenge: p.Challenge(verifier),
		Method:    MethodS256,
	}
}
