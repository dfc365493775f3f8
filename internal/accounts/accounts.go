// Package accounts loads the bot credential pool and hands accounts out
// one at a time. Each line of the pool file is "username:password"; the
// secret sent to the auth services is derived from the password, the plain
// password never leaves this package's Account value.
package accounts

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// ErrPoolExhausted is returned by Next once every account has been leased.
var ErrPoolExhausted = errors.New("accounts: pool exhausted")

// Account is one entry of the pool. Secret is the hex SHA-256 of the
// password and is what the session and auth-code service consume.
type Account struct {
	Username string
	Password string
	Secret   string
}

// Pool hands out accounts in file order, each at most once.
type Pool struct {
	mu   sync.Mutex
	next int
	all  []Account
}

// Load reads a pool file. Blank lines and lines starting with '#' are
// skipped; anything else must be "username:password".
func Load(path string) (*Pool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	defer f.Close()

	var all []Account
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		user, pass, ok := strings.Cut(text, ":")
		if !ok || user == "" || pass == "" {
			return nil, fmt.Errorf("accounts: %s:%d: malformed entry", path, line)
		}
		all = append(all, Account{
			Username: user,
			Password: pass,
			Secret:   DeriveSecret(pass),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("accounts: %s: no usable entries", path)
	}
	return &Pool{all: all}, nil
}

// NewPool builds a pool from already parsed accounts, deriving any missing
// secrets.
func NewPool(accs []Account) *Pool {
	all := make([]Account, len(accs))
	copy(all, accs)
	for i := range all {
		if all[i].Secret == "" {
			all[i].Secret = DeriveSecret(all[i].Password)
		}
	}
	return &Pool{all: all}
}

// Next leases the next unused account.
func (p *Pool) Next() (Account, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.next >= len(p.all) {
		return Account{}, ErrPoolExhausted
	}
	a := p.all[p.next]
	p.next++
	return a, nil
}

// Remaining reports how many accounts are still unleased.
func (p *Pool) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.all) - p.next
}

// DeriveSecret maps a plain password to the hex digest the auth services
// expect.
func DeriveSecret(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
