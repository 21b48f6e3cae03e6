package service

// AddressCipher seals confidential profile fields before they are stored.
type AddressCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
