package client

import (
	"errors"
	"regexp"
	"strings"
)

var walletPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// Wallet is the identity source for the session. The address doubles as the
// owner key for every chat the server stores.
type Wallet interface {
	// Connect makes the wallet available and returns its address.
	Connect() (string, error)
	Connected() bool
	Address() string
	Disconnect()
}

// StaticWallet is a wallet backed by a fixed address, supplied on the
// command line or from the environment.
type StaticWallet struct {
	address   string
	connected bool
}

func NewStaticWallet(address string) (*StaticWallet, error) {
	address = strings.TrimSpace(address)
	if !walletPattern.MatchString(address) {
		return nil, errors.New("wallet address must be a 0x-prefixed 40-hex-digit string")
	}
	return &StaticWallet{address: address}, nil
}

func (w *StaticWallet) Connect() (string, error) {
	w.connected = true
	return w.address, nil
}

func (w *StaticWallet) Connected() bool { return w.connected }

func (w *StaticWallet) Address() string { return w.address }

func (w *StaticWallet) Disconnect() { w.connected = false }
