/*
File Name:  needed.go
Copyright:  2026 Bitmessage Core Contributors
Author:     Bitmessage Core Contributors

The source's neededPubkeys/identities/subscriptions parameters accepted a
bare address, an array of addresses, or an already-built map — decoders
re-derived the right key on every call. Here each decoder takes a plain map
built once via these constructors, normalizing a single address or a list
into a tag/ripe → private_key mapping up front.
*/

package object

import "github.com/bitchan/bitmessage/address"

// NeededPubkeys maps a v4-pubkey tag to the private key that should decrypt it.
type NeededPubkeys map[[32]byte][]byte

// NeededPubkeysFor builds a NeededPubkeys set from one or more addresses,
// keyed by each address's pubkey tag.
func NeededPubkeysFor(addrs ...*address.Address) NeededPubkeys {
	out := make(NeededPubkeys, len(addrs))
	for _, a := range addrs {
		out[a.Tag()] = a.PubkeyPrivateKey()
	}
	return out
}

// Identities maps a destination ripe to the private key that should decrypt
// a msg addressed to it.
type Identities map[[20]byte][]byte

// IdentitiesFor builds an Identities set from one or more addresses.
func IdentitiesFor(addrs ...*address.Address) Identities {
	out := make(Identities, len(addrs))
	for _, a := range addrs {
		out[a.Ripe] = a.EncPrivateKey
	}
	return out
}

// Subscriptions maps a v5-broadcast tag to the private key that should
// decrypt it. v4 broadcasts (addresses v2/v3) have no tag; callers decrypting
// those supply the one matching private key directly.
type Subscriptions map[[32]byte][]byte

// SubscriptionsFor builds a Subscriptions set from one or more v4 addresses.
func SubscriptionsFor(addrs ...*address.Address) Subscriptions {
	out := make(Subscriptions, len(addrs))
	for _, a := range addrs {
		out[a.BroadcastTag()] = a.BroadcastPrivateKey()
	}
	return out
}
