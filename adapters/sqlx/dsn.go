package sqlx

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
)

const mask = "***"

var kvPassword = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('[^']*'|\S+)`)

// MaskDSN returns dsn with any password replaced by ***.
func MaskDSN(driver Driver, dsn string) string {
	if strings.Contains(dsn, "://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return mask
		}
		var userinfo string
		if u.User != nil {
			userinfo = url.User(u.User.Username()).String()
			if _, ok := u.User.Password(); ok {
				userinfo += ":" + mask
			}
			userinfo += "@"
			u.User = nil
		}
		// url escapes '*' in userinfo, so the mask is spliced in after rendering.
		prefix := u.Scheme + "://"
		rendered := prefix + userinfo + strings.TrimPrefix(u.String(), prefix)
		return kvPassword.ReplaceAllString(rendered, "${1}"+mask)
	}
	if driver == DriverMySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return mask
		}
		if cfg.Passwd != "" {
			cfg.Passwd = mask
		}
		return cfg.FormatDSN()
	}
	return kvPassword.ReplaceAllString(dsn, "${1}"+mask)
}

// normalizeDSN makes sure MySQL DATETIME columns scan into time.Time.
func normalizeDSN(driver Driver, dsn string) (string, error) {
	if driver != DriverMySQL {
		return dsn, nil
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", err
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}
