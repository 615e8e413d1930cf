package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"freshcart/errs"
	"freshcart/middleware"
	"freshcart/models"
	"freshcart/utils"

	"golang.org/x/crypto/bcrypt"
)

const (
	otpLength      = 6
	maxOTPSends    = 5
	maxOTPAttempts = 5
)

// KV is the expiring key-value store OTPs live in.
type KV interface {
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

type AccountStore interface {
	EnsureByPhone(ctx context.Context, phone string) (*models.Account, error)
	FindByPhone(ctx context.Context, phone string) (*models.Account, error)
	MarkLoggedIn(ctx context.Context, id string) error
}

// Sender delivers the OTP text to a phone.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// LogSender writes OTP messages to the log instead of an SMS provider.
type LogSender struct{}

func (LogSender) Send(_ context.Context, phone, message string) error {
	log.Printf("sms to %s: %s", phone, message)
	return nil
}

type Service struct {
	kv       KV
	accounts AccountStore
	sender   Sender
	secret   []byte
	otpTTL   time.Duration
	tokenTTL time.Duration
	cost     int
}

func NewService(kv KV, accounts AccountStore, sender Sender, secret string, otpTTL, tokenTTL time.Duration) *Service {
	return &Service{
		kv:       kv,
		accounts: accounts,
		sender:   sender,
		secret:   []byte(secret),
		otpTTL:   otpTTL,
		tokenTTL: tokenTTL,
		cost:     bcrypt.DefaultCost,
	}
}

func normalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}

// SendOTP creates the account on first contact and texts it a fresh code.
// Only the bcrypt hash of the code is stored.
func (s *Service) SendOTP(ctx context.Context, phone string) error {
	phone = normalizePhone(phone)
	if phone == "" {
		return errs.E(errs.ValidationError, "Phone number is required")
	}

	sends, err := s.kv.Incr(ctx, "otp_sends:"+phone, s.otpTTL)
	if err != nil {
		return err
	}
	if sends > maxOTPSends {
		return errs.E(errs.Busy, "Too many OTP requests, try again later")
	}

	if _, err := s.accounts.EnsureByPhone(ctx, phone); err != nil {
		return err
	}

	otp := utils.GenerateRandomDigitString(otpLength)
	hash, err := bcrypt.GenerateFromPassword([]byte(otp), s.cost)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}
	if err := s.kv.SetEx(ctx, "otp:"+phone, string(hash), s.otpTTL); err != nil {
		return err
	}
	if err := s.kv.Del(ctx, "otp_attempts:"+phone); err != nil {
		return err
	}

	msg := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", otp, int(s.otpTTL.Minutes()))
	if err := s.sender.Send(ctx, phone, msg); err != nil {
		return errs.Wrap(errs.Internal, "Failed to send OTP", err)
	}
	return nil
}

// VerifyOTP checks the code and returns a session token for the account.
func (s *Service) VerifyOTP(ctx context.Context, phone, otp string) (string, *models.Account, error) {
	phone = normalizePhone(phone)
	if phone == "" || otp == "" {
		return "", nil, errs.E(errs.ValidationError, "Phone number and OTP are required")
	}

	hash, err := s.kv.Get(ctx, "otp:"+phone)
	if err != nil {
		return "", nil, err
	}
	if hash == "" {
		return "", nil, errs.E(errs.ValidationError, "OTP expired. Please request a new one")
	}

	attempts, err := s.kv.Incr(ctx, "otp_attempts:"+phone, s.otpTTL)
	if err != nil {
		return "", nil, err
	}
	if attempts > maxOTPAttempts {
		_ = s.kv.Del(ctx, "otp:"+phone)
		return "", nil, errs.E(errs.Busy, "Too many attempts. Please request a new OTP")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(otp)) != nil {
		return "", nil, errs.E(errs.ValidationError, "Invalid OTP. Please try again")
	}
	_ = s.kv.Del(ctx, "otp:"+phone)
	_ = s.kv.Del(ctx, "otp_attempts:"+phone)

	acc, err := s.accounts.FindByPhone(ctx, phone)
	if err != nil {
		return "", nil, err
	}
	if acc == nil {
		return "", nil, errs.E(errs.AccountNotFound, "account not found")
	}
	if acc.Disabled {
		return "", nil, errs.E(errs.Forbidden, "Account is disabled")
	}
	if err := s.accounts.MarkLoggedIn(ctx, acc.ID); err != nil {
		log.Printf("auth: mark login %s: %v", acc.ID, err)
	}

	token, err := middleware.IssueToken(s.secret, acc, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}
	return token, acc, nil
}
