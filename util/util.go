package util

import (
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

func RandomString(n int) string {
	rand.Seed(time.Now().UnixNano())

	var letter = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

	b := make([]rune, n)
	for i := range b {
		b[i] = letter[rand.Intn(len(letter))]
	}
	return string(b)
}

func RandomInt64() int64 {
	return int64(rand.Uint64())
}

func GetUUID() string {
	return uuid.New().String()
}

func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// SplitAndTrim splits s on sep and drops empty entries.
func SplitAndTrim(s, sep string) []string {
	values := make([]string, 0)
	for _, v := range strings.Split(s, sep) {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
