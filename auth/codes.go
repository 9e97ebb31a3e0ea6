package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeSpace = 1000000

// CodeGenerator produces verification and reset codes
type CodeGenerator interface {
	Generate() (string, error)
}

// CodeGeneratorFunc adapts a function to CodeGenerator
type CodeGeneratorFunc func() (string, error)

func (f CodeGeneratorFunc) Generate() (string, error) { return f() }

type numericCodes struct{}

// NewCodeGenerator returns a generator of uniformly sampled
// six digit codes, zero padded.
func NewCodeGenerator() CodeGenerator {
	return numericCodes{}
}

func (numericCodes) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeSpace))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
