package api

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoToken токен отсутствует
	ErrNoToken = errors.New("bearer token is not configured")

	// ErrTokenExpired срок действия токена истёк
	ErrTokenExpired = errors.New("bearer token expired")
)

// TokenProvider источник bearer токена для запросов к хранилищу
type TokenProvider interface {
	Token() (string, error)
}

// StaticToken фиксированный токен
type StaticToken string

// Token возвращает токен или ErrNoToken для пустой строки
func (s StaticToken) Token() (string, error) {
	if s == "" {
		return "", ErrNoToken
	}
	return checkExpiry(string(s), time.Now())
}

// FileTokenProvider читает токен из файла при каждом запросе.
// Файл обновляется внешним процессом входа; смену файла отслеживает events.TokenFileSource.
type FileTokenProvider struct {
	now  func() time.Time
	path string
}

// NewFileTokenProvider создает провайдер токена из файла
func NewFileTokenProvider(path string) *FileTokenProvider {
	return &FileTokenProvider{path: path, now: time.Now}
}

// Path путь к файлу токена
func (p *FileTokenProvider) Path() string {
	return p.path
}

// Token читает токен из файла
func (p *FileTokenProvider) Token() (string, error) {
	if p.path == "" {
		return "", ErrNoToken
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	return checkExpiry(token, p.now())
}

// checkExpiry проверяет exp у JWT без проверки подписи: подпись проверяет сервер.
// Непрозрачные (не JWT) токены возвращаются как есть.
func checkExpiry(token string, now time.Time) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return token, nil
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return token, nil
	}
	if !now.Before(exp.Time) {
		return "", fmt.Errorf("%w at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}
	return token, nil
}
