package user

import (
	"testing"
	"time"
)

func TestMakeVerifyToken(t *testing.T) {
	gen := newTokenGenerator("secret", time.Hour)

	now := time.Now()
	usr := User{
		ID:        "6f1c7a52-6c1f-4bd4-9d7e-2b8f6a6c2c11",
		Name:      "T",
		Email:     "t@test.ma",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		LastLogin: now,
	}
	_ = usr.SetPassword("pwd")

	validToken := gen.makeToken(usr)

	// generate an expired token
	late := gen.timeout + time.Minute
	gen.nowFunc = func() time.Time { return time.Now().Add(-late) }
	expiredToken := gen.makeToken(usr)
	gen.nowFunc = time.Now // reset

	// the password changed since
	otherUsr := usr
	_ = otherUsr.SetPassword("new-pwd")

	// signed with another key
	forged := newTokenGenerator("other", time.Hour).makeToken(usr)

	tests := []struct {
		name    string
		usr     User
		token   string
		wantErr error
	}{
		{name: "no token", usr: usr, wantErr: errInvalidToken},
		{name: "invalid parts len", usr: usr, token: "lmaooolol", wantErr: errInvalidToken},
		{name: "invalid base32", usr: usr, token: "uid.hahaha.sig", wantErr: errInvalidToken},
		{name: "invalid timestamp", usr: usr, token: "uid.NRXWY.sig", wantErr: errInvalidToken},
		{name: "invalid signature", usr: usr, token: "uid.HE4TS.sig", wantErr: errInvalidToken},
		{name: "forged token", usr: usr, token: forged, wantErr: errInvalidToken},
		{name: "password changed", usr: otherUsr, token: validToken, wantErr: errInvalidToken},
		{name: "expired token", usr: usr, token: expiredToken, wantErr: errTokenExpired},
		{name: "valid token", usr: usr, token: validToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := gen.verifyToken(tt.usr, tt.token); err != tt.wantErr {
				t.Errorf("verifyToken() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeUID(t *testing.T) {
	gen := newTokenGenerator("secret", time.Hour)
	usr := User{ID: "user-1"}

	tests := []struct {
		name    string
		token   string
		want    string
		wantErr bool
	}{
		{name: "valid", token: gen.makeToken(usr), want: "user-1"},
		{name: "no parts", token: "abc", wantErr: true},
		{name: "empty uid", token: ".a.b", wantErr: true},
		{name: "bad base64", token: "!!.a.b", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeUID(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeUID() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("decodeUID() = %v; want %v", got, tt.want)
			}
		})
	}
}
