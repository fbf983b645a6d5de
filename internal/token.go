package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

type FamilyID [16]byte

const (
	credentialRawSize    = 48
	credentialSecretSize = 32
)

func NewFamilyID() FamilyID {
	return FamilyID(uuid.New())
}

func (f FamilyID) Bytes() []byte {
	return f[:]
}

func (f FamilyID) String() string {
	return uuid.UUID(f).String()
}

func ParseFamilyID(familyID string) (FamilyID, error) {
	parsed, err := uuid.Parse(familyID)
	if err != nil {
		return FamilyID{}, err
	}
	return FamilyID(parsed), nil
}

func NewCredentialSecret() ([credentialSecretSize]byte, error) {
	var secret [credentialSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

func HashCredentialSecret(secret [credentialSecretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

func HashesEqual(a, b [32]byte) bool {
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

func EncodeCredential(familyID string, secret [credentialSecretSize]byte) (string, error) {
	fid, err := ParseFamilyID(familyID)
	if err != nil {
		return "", err
	}

	var raw [credentialRawSize]byte
	copy(raw[:len(fid)], fid[:])
	copy(raw[len(fid):], secret[:])

	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

func DecodeCredential(value string) (string, [credentialSecretSize]byte, error) {
	var secret [credentialSecretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return "", secret, err
	}
	if len(raw) != credentialRawSize {
		return "", secret, errors.New("invalid credential size")
	}

	var fid FamilyID
	copy(fid[:], raw[:len(fid)])
	copy(secret[:], raw[len(fid):])

	return fid.String(), secret, nil
}
