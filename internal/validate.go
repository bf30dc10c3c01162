// Copyright 2026 The SafeTrack Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package internal

import (
	"errors"
	"fmt"
	"strings"
)

const maxEmailLength = 254 // RFC 5321 path limit

const maxPasswordLength = 512

var (
	ErrCredentialsRequired = errors.New("Email et mot de passe requis.")
	ErrEmailTooLong        = fmt.Errorf("Email trop long : %d caractères maximum.", maxEmailLength)
	ErrPasswordTooLong     = fmt.Errorf("Mot de passe trop long : %d caractères maximum.", maxPasswordLength)
)

// ValidateCredentials rejects login input that cannot succeed, before any
// request reaches the backend.
func ValidateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return ErrCredentialsRequired
	}
	if len(email) > maxEmailLength {
		return ErrEmailTooLong
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// IsCredentialError reports whether err came from ValidateCredentials.
func IsCredentialError(err error) bool {
	return errors.Is(err, ErrCredentialsRequired) ||
		errors.Is(err, ErrEmailTooLong) ||
		errors.Is(err, ErrPasswordTooLong)
}
