package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	salt      = []byte("archify.backend.core.user.token_gen")
	b32       = base32.StdEncoding.WithPadding(base32.NoPadding)
	tokenSep  = "."
	refTstamp = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

	// errors
	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// tokenGenerator makes password reset tokens: "<uid>.<timestamp>.<signature>".
// The signature covers the password hash and last login, so a token stops
// working once the password changed or the user logged in.
type tokenGenerator struct {
	secretKey []byte
	timeout   time.Duration
	nowFunc   func() time.Time // mockable
}

func newTokenGenerator(secretKey string, timeout time.Duration) tokenGenerator {
	return tokenGenerator{
		secretKey: []byte(secretKey),
		timeout:   timeout,
		nowFunc:   time.Now,
	}
}

// encodeUID base64 encodes given User ID
func encodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

// decodeUID extracts the User ID out of a token.
func decodeUID(token string) (string, error) {
	parts := strings.Split(token, tokenSep)
	if len(parts) != 3 {
		return "", errInvalidToken
	}
	idBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil || len(idBytes) == 0 {
		return "", errInvalidToken
	}
	return string(idBytes), nil
}

// makeToken generates a password reset token for a given User.
func (g tokenGenerator) makeToken(usr User) string {
	return g.makeTokenWithTimestamp(usr, secondsSince2001(g.nowFunc()))
}

// verifyToken checks that a password reset token for a given User is valid.
func (g tokenGenerator) verifyToken(usr User, token string) error {
	if token == "" {
		return errInvalidToken
	}

	parts := strings.Split(token, tokenSep)
	if len(parts) != 3 {
		return errInvalidToken
	}

	data, err := b32.DecodeString(parts[1])
	if err != nil {
		return errInvalidToken
	}
	ts, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errInvalidToken
	}

	// check that token has not been tampered with
	newToken := g.makeTokenWithTimestamp(usr, ts)
	if subtle.ConstantTimeCompare([]byte(newToken), []byte(token)) == 0 {
		return errInvalidToken
	}

	// check that the timestamp is within limit
	if secondsSince2001(g.nowFunc())-ts > int64(g.timeout/time.Second) {
		return errTokenExpired
	}
	return nil
}

func (g tokenGenerator) makeTokenWithTimestamp(usr User, ts int64) string {
	tsB32 := b32.EncodeToString([]byte(strconv.FormatInt(ts, 10)))
	return strings.Join([]string{encodeUID(usr), tsB32, g.sign(hashValue(usr, ts))}, tokenSep)
}

func secondsSince2001(t time.Time) int64 {
	return int64(t.Sub(refTstamp) / time.Second)
}

func (g tokenGenerator) sign(val []byte) string {
	key := sha256.Sum256(append(append([]byte{}, salt...), g.secretKey...))
	h := hmac.New(sha256.New, key[:])
	_, _ = h.Write(val) // never fails
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func hashValue(usr User, ts int64) []byte {
	var val bytes.Buffer
	val.WriteString(usr.ID)
	val.Write(usr.PasswordHash)
	if !usr.LastLogin.IsZero() {
		val.WriteString(usr.LastLogin.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.FormatInt(ts, 10))
	return val.Bytes()
}
