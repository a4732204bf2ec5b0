package utils

import (
	"fmt"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPIssuer is the issuer name shown in authenticator apps
const TOTPIssuer = "EventReg Admin"

// GenerateTOTPSecret generates a new TOTP key for an admin account and
// returns the secret plus the provisioning URL for QR display.
func GenerateTOTPSecret(accountName string) (secret, url string, err error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      TOTPIssuer,
		AccountName: accountName,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
		SecretSize:  20,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to generate TOTP key: %w", err)
	}
	return key.Secret(), key.URL(), nil
}

// ValidateTOTPCode checks a 6-digit code against the stored secret
func ValidateTOTPCode(secret, code string) bool {
	return totp.Validate(code, secret)
}
