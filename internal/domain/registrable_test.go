package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistrableDomain(t *testing.T) {
	tests := map[string]string{
		"https://www.acme.co.uk/about": "acme.co.uk",
		"http://shop.Example.COM.":     "example.com",
		"https://127.0.0.1:8080/":      "127.0.0.1",
		"http://localhost/":            "localhost",
		"http://10.0.0.1/":             "10.0.0.1",
		"http://[::1]:8080/":           "::1",
	}
	for in, want := range tests {
		got, err := RegistrableDomain(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := RegistrableDomain("/relative/path")
	assert.Error(t, err)
	_, err = RegistrableDomain("http://[::1")
	assert.Error(t, err)
}

func TestRegistrableHostKeepsIPAddresses(t *testing.T) {
	assert.Equal(t, "127.0.0.1", RegistrableHost("127.0.0.1"))
	assert.NotEqual(t, RegistrableHost("127.0.0.1"), RegistrableHost("10.0.0.1"))
	assert.Equal(t, "fe80::1", RegistrableHost("FE80::1"))
}
