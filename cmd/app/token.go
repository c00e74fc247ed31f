package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vietanh2810/attendance-api/internal/pkg/jwthelper"
)

var errNoSubject = errors.New("a subject is required")

// IssueToken signs a token with the configured key for local development,
// where no identity provider is at hand.
func IssueToken(subject, name, roles string, ttl time.Duration) (string, error) {
	conf, err := setup()
	if err != nil {
		return "", err
	}

	return issueToken(conf.API.JWTSigningKey, subject, name, roles, ttl)
}

func issueToken(signingKey, subject, name, roles string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errNoSubject
	}

	var parsed []string
	for _, r := range strings.Split(roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			parsed = append(parsed, r)
		}
	}

	token, err := jwthelper.GenerateToken(signingKey, subject, name, parsed, ttl)
	if err != nil {
		return "", fmt.Errorf("jwthelper.GenerateToken -> %w", err)
	}

	return token, nil
}
