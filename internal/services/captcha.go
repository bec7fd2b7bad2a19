package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

const captchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type CaptchaService interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

type captchaService struct {
	log       *logger.Logger
	secretKey string
	client    *http.Client
}

// NewCaptchaService verifies reCAPTCHA tokens against Google. With no
// RECAPTCHA_SECRET_KEY configured the check is disabled (local development).
func NewCaptchaService(log *logger.Logger) CaptchaService {
	serviceLog := log.With("service", "CaptchaService")
	secretKey := strings.TrimSpace(utils.GetEnv("RECAPTCHA_SECRET_KEY", "", log))
	if secretKey == "" {
		serviceLog.Warn("RECAPTCHA_SECRET_KEY not set, captcha verification disabled")
	}
	return &captchaService{
		log:       serviceLog,
		secretKey: secretKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (cs *captchaService) Verify(ctx context.Context, token, remoteIP string) error {
	if cs.secretKey == "" {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("captcha token is required")
	}

	form := url.Values{}
	form.Set("secret", cs.secretKey)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, captchaVerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build captcha request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := cs.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success    bool     `json:"success"`
		ErrorCodes []string `json:"error-codes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to decode captcha response: %w", err)
	}
	if !body.Success {
		cs.log.Warn("Captcha verification rejected", "error_codes", body.ErrorCodes)
		return fmt.Errorf("captcha verification failed")
	}
	return nil
}
