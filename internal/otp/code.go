// Package otp generates one-time login codes and delivers them.
package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/dtroode/otptasks-server/internal/model"
)

var codeSpace = big.NewInt(1_000_000)

// Generator produces fixed-width numeric codes from a cryptographic source.
type Generator struct {
	random io.Reader
}

// NewGenerator creates a Generator reading from crypto/rand.
func NewGenerator() *Generator {
	return &Generator{random: rand.Reader}
}

// NewGeneratorWithReader creates a Generator reading from r.
func NewGeneratorWithReader(r io.Reader) *Generator {
	return &Generator{random: r}
}

// Generate returns a code uniformly distributed over 000000-999999.
func (g *Generator) Generate() (string, error) {
	n, err := rand.Int(g.random, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to read random code: %w", err)
	}

	return fmt.Sprintf("%0*d", model.OTPLength, n.Int64()), nil
}
