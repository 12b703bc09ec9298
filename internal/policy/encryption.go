// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package policy

// Encrypter seals and opens raw values. security.Cipher implements it.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// Encryption is the encryption capability handed to the Engine. It is either
// NoEncryption or WithEncryption; the Engine handles each variant explicitly
// and refuses investigation storage under NoEncryption.
type Encryption interface {
	encryption()
}

// NoEncryption states that no encryption capability is configured.
type NoEncryption struct{}

// WithEncryption carries a configured Encrypter.
type WithEncryption struct {
	Encrypter Encrypter
}

func (NoEncryption) encryption()   {}
func (WithEncryption) encryption() {}

// EncryptionFrom wraps e, returning NoEncryption for a nil Encrypter.
func EncryptionFrom(e Encrypter) Encryption {
	if e == nil {
		return NoEncryption{}
	}
	return WithEncryption{Encrypter: e}
}
