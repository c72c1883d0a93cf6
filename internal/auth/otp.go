package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// OTPLength is the number of digits in a one-time code.
const OTPLength = 6

// GenerateOTP returns a random numeric code of OTPLength digits.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// OTPSender delivers a one-time code to the user out of band.
type OTPSender interface {
	Send(ctx context.Context, email, code string) error
}

// LogOTPSender writes codes to the process log. It is meant for development
// deployments without a mail relay.
type LogOTPSender struct{}

// Send logs the code.
func (LogOTPSender) Send(_ context.Context, email, code string) error {
	log.Printf("[DEV] OTP for %s: %s", email, code)
	return nil
}
