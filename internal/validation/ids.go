package validation

import (
	"fmt"
	"net/url"
	"regexp"
)

// ZoneNamePattern определяет допустимый формат имени зоны
// Латинские буквы, цифры, '_', '-' и '.'; первый символ буква или цифра
// Длина: 1-64 символа
var ZoneNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{0,63}$`)

// SubscriptionIDPattern определяет допустимый формат идентификатора подписки
var SubscriptionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.:-]{0,127}$`)

const (
	// MaxRecordIDLen максимальная длина идентификатора записи в байтах
	MaxRecordIDLen = 255
)

// ValidateZoneName проверяет, что имя зоны соответствует требованиям
func ValidateZoneName(zone string) error {
	if zone == "" {
		return fmt.Errorf("zone name cannot be empty")
	}

	if !ZoneNamePattern.MatchString(zone) {
		return fmt.Errorf("zone name %q must be 1-64 characters of letters, digits, '_', '-' or '.'", zone)
	}

	return nil
}

// ValidateSubscriptionID проверяет идентификатор подписки на изменения
func ValidateSubscriptionID(id string) error {
	if id == "" {
		return fmt.Errorf("subscription id cannot be empty")
	}

	if !SubscriptionIDPattern.MatchString(id) {
		return fmt.Errorf("subscription id %q contains invalid characters", id)
	}

	return nil
}

// ValidateRecordID проверяет идентификатор записи
// Идентификатор непрозрачен для движка, проверяется только длина
func ValidateRecordID(id string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	if len(id) > MaxRecordIDLen {
		return fmt.Errorf("record id must not exceed %d bytes", MaxRecordIDLen)
	}

	return nil
}

// ValidateBaseURL проверяет адрес удалённого хранилища
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("remote url cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid remote url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("remote url must use http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("remote url must include a host")
	}

	return nil
}
