package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// HeaderName is the request header the storefront sends its identity under.
// Format is an RFC 8941 Structured Field Dictionary:
//
//	Storefront-Session: user="u_123", key="sk_abc"
//	Storefront-Session: guest="g_9f2c"
//
// A dictionary survives header-mangling middleboxes better than ad-hoc
// delimited formats and parses with strict quoting rules.
const HeaderName = "Storefront-Session"

// ParseHeader extracts the shopper identity from a Storefront-Session header.
// An empty header yields the zero Identity (anonymous visitor, no error).
// A present-but-malformed header is an error so auth problems surface
// instead of silently downgrading a signed-in shopper to a guest cart.
func ParseHeader(header string) (Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Identity{}, nil
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return Identity{}, fmt.Errorf("invalid %s header: %w", HeaderName, err)
	}

	id := Identity{}
	if v, err := dictString(dict, "user"); err != nil {
		return Identity{}, err
	} else {
		id.UserID = v
	}
	if v, err := dictString(dict, "key"); err != nil {
		return Identity{}, err
	} else {
		id.SessionKey = v
	}
	if v, err := dictString(dict, "guest"); err != nil {
		return Identity{}, err
	} else {
		id.GuestToken = v
	}

	// user and key travel together; one without the other is a client bug
	if (id.UserID == "") != (id.SessionKey == "") {
		return Identity{}, errors.New("session header must carry both user and key")
	}

	return id, nil
}

// dictString reads an optional string member from a parsed dictionary.
func dictString(dict *httpsfv.Dictionary, key string) (string, error) {
	member, ok := dict.Get(key)
	if !ok {
		return "", nil
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("%s must be an item", key)
	}

	s, ok := item.Value.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}

	return s, nil
}
