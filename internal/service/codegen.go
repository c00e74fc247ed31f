package service

import (
	"crypto/rand"
	"math/big"
	mrand "math/rand"
	"strconv"
)

const (
	minCode   = 100000
	codeRange = 900000
)

type CodeGenerator interface {
	Next() string
}

// RandomCodes draws six digit codes in [100000, 999999].
type RandomCodes struct{}

func (RandomCodes) Next() string {
	n, err := rand.Int(rand.Reader, big.NewInt(codeRange))
	if err != nil {
		return strconv.Itoa(minCode + mrand.Intn(codeRange))
	}
	return strconv.Itoa(minCode + int(n.Int64()))
}
