package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"alice@acmecare.example",
		"alice+tag@sub.domain.com.au",
		"a.b_c%d@x-y.co",
	}
	for _, email := range valid {
		assert.True(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@no-local.com",
		"no-domain@",
		"spaces in@domain.com",
		"no-tld@domain",
	}
	for _, email := range invalid {
		assert.False(t, ValidateEmail(email), email)
	}
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Sup3rSecret"))

	cases := map[string]string{
		"too short":     "Ab1",
		"no uppercase":  "lowercase1only",
		"no lowercase":  "UPPERCASE1ONLY",
		"no number":     "NoNumbersHere",
		"over max size": "Aa1" + strings.Repeat("x", 126),
	}
	for name, password := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, ValidatePassword(password))
		})
	}
}

func TestValidateABN(t *testing.T) {
	// Published example ABN from the ATO checksum specification.
	assert.True(t, ValidateABN("51824753556"))
	assert.True(t, ValidateABN("51 824 753 556"))

	assert.False(t, ValidateABN(""))
	assert.False(t, ValidateABN("51824753557"))
	assert.False(t, ValidateABN("5182475355"))
	assert.False(t, ValidateABN("518247535567"))
	assert.False(t, ValidateABN("5182475355a"))
}
