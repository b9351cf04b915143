// internal/adapters/out/localstore/slot.go
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"brihaspati/internal/domain/auth"
	"brihaspati/internal/domain/cart"
)

// Slot is the local storage of one storefront session. It implements
// cart.LocalMirror and auth.FlagStore, and keeps the identity provider's
// persisted session under KeyProviderSession.
type Slot struct {
	store     *Store
	sessionID string
}

var (
	_ cart.LocalMirror = (*Slot)(nil)
	_ auth.FlagStore   = (*Slot)(nil)
)

func (s *Slot) SessionID() string { return s.sessionID }

// LoadCart returns the stored snapshot. A value that does not decode is
// reported as an error; the caller decides to start empty.
func (s *Slot) LoadCart() ([]cart.Line, bool, error) {
	raw, ok, err := s.GetItem(KeyCart)
	if err != nil || !ok {
		return nil, false, err
	}
	var lines []cart.Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, false, fmt.Errorf("localstore: decode cart: %w", err)
	}
	return cart.Normalize(lines), true, nil
}

// SaveCart overwrites the snapshot wholesale.
func (s *Slot) SaveCart(lines []cart.Line) error {
	b, err := json.Marshal(cart.Clone(lines))
	if err != nil {
		return fmt.Errorf("localstore: encode cart: %w", err)
	}
	return s.SetItem(KeyCart, string(b))
}

func (s *Slot) LoadFlags() (auth.LocalFlags, error) {
	var f auth.LocalFlags
	v, _, err := s.GetItem(KeyIsLoggedIn)
	if err != nil {
		return f, err
	}
	f.IsLoggedIn, _ = strconv.ParseBool(v)
	if f.UserName, _, err = s.GetItem(KeyUserName); err != nil {
		return f, err
	}
	if f.UserEmail, _, err = s.GetItem(KeyUserEmail); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Slot) SaveFlags(f auth.LocalFlags) error {
	logged := strconv.FormatBool(f.IsLoggedIn)
	return s.store.set(context.Background(), s.sessionID, map[string]*string{
		KeyIsLoggedIn: &logged,
		KeyUserName:   &f.UserName,
		KeyUserEmail:  &f.UserEmail,
	})
}

// ClearFlags removes the three flag keys (the cart snapshot stays).
func (s *Slot) ClearFlags() error {
	return s.store.set(context.Background(), s.sessionID, map[string]*string{
		KeyIsLoggedIn: nil,
		KeyUserName:   nil,
		KeyUserEmail:  nil,
	})
}

// GetItem, SetItem and RemoveItem give raw access to the slot.
func (s *Slot) GetItem(key string) (string, bool, error) {
	return s.store.get(context.Background(), s.sessionID, key)
}

func (s *Slot) SetItem(key, value string) error {
	return s.store.set(context.Background(), s.sessionID, map[string]*string{key: &value})
}

func (s *Slot) RemoveItem(key string) error {
	return s.store.set(context.Background(), s.sessionID, map[string]*string{key: nil})
}
