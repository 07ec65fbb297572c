// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

// IsValidStudentID проверяет, что студенческий номер состоит из 5-20 цифр.
func IsValidStudentID(id string) bool {
	if len(id) < 5 || len(id) > 20 {
		return false
	}
	for _, ch := range id {
		if !unicode.IsDigit(ch) {
			return false
		}
	}
	return true
}

// IsValidPassword проверяет минимальную длину пароля.
func IsValidPassword(password string) bool {
	return len(password) >= 6
}
