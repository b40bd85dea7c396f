package sources

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	apperrors "balag/internal/errors"
)

// Account holds the FTPS credentials read from login_ftp.txt
type Account struct {
	User     string
	Password string
	Host     string
	Port     int
}

// Address returns host:port
func (a Account) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// LoadAccount reads a file of "key value" lines holding user, password,
// host and port. Unknown keys are ignored.
func LoadAccount(path string) (Account, error) {
	file, err := os.Open(path)
	if err != nil {
		return Account{}, apperrors.NewConfigError("cannot read ftp account file", fmt.Errorf("%w: %v", apperrors.ErrNoAccount, err)).
			WithContext("file", path)
	}
	defer file.Close()

	var acc Account
	seen := make(map[string]bool)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch key {
		case "user":
			acc.User = value
		case "password":
			acc.Password = value
		case "host":
			acc.Host = value
		case "port":
			port, err := strconv.Atoi(value)
			if err != nil || port <= 0 || port > 65535 {
				return Account{}, apperrors.NewConfigError("invalid ftp port", err).
					WithContext("value", value)
			}
			acc.Port = port
		default:
			continue
		}
		seen[key] = true
	}
	if err := scanner.Err(); err != nil {
		return Account{}, apperrors.NewConfigError("cannot read ftp account file", err)
	}

	var missing []string
	for _, key := range []string{"user", "password", "host", "port"} {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return Account{}, apperrors.NewConfigError(
			fmt.Sprintf("ftp account file lacks %s", strings.Join(missing, ", ")), apperrors.ErrNoAccount).
			WithContext("file", path)
	}

	return acc, nil
}
