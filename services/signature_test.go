package services

import (
	"testing"

	"edms-api/models"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSignatureShape(t *testing.T) {
	sig := GenerateSignature(1, 42, models.ActionApproved)

	assert.Len(t, sig, 32)
	for _, c := range sig {
		hex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
		assert.True(t, hex, "unexpected character %q in signature", c)
	}
}

func TestGenerateSignatureVariesWithInput(t *testing.T) {
	a := GenerateSignature(1, 42, models.ActionApproved)
	b := GenerateSignature(2, 42, models.ActionApproved)
	c := GenerateSignature(1, 42, models.ActionRejected)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}
