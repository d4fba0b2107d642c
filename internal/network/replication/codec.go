// Package replication carries owner -> observer state and one-shot events.
//
// State travels as per-entity deltas where the newest sequence number wins;
// events travel on a separate queue that is drained once and never retried.
package replication

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-msgpack/v2/codec"

	"github.com/BDubz420/DubzRP/internal/game/entity"
)

// ErrNotAuthority is returned when a participant tries to write state it
// does not own, or an owner is handed a remote write.
var ErrNotAuthority = errors.New("replication: not the authority for this entity")

var handle = &codec.MsgpackHandle{}

// Encode serializes v with msgpack.
func Encode(v any) ([]byte, error) {
	var buf []byte
	if err := codec.NewEncoderBytes(&buf, handle).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return buf, nil
}

// Decode deserializes msgpack data into v.
func Decode(data []byte, v any) error {
	if err := codec.NewDecoderBytes(data, handle).Decode(v); err != nil {
		return fmt.Errorf("decoding %T: %w", v, err)
	}
	return nil
}

// RequireOwner fails with ErrNotAuthority unless role may write.
func RequireOwner(role entity.Role) error {
	if role != entity.RoleOwner {
		return ErrNotAuthority
	}
	return nil
}

// RequireProxy fails with ErrNotAuthority if role is the owner: the single
// writer never accepts replicated writes for its own entity.
func RequireProxy(role entity.Role) error {
	if role == entity.RoleOwner {
		return ErrNotAuthority
	}
	return nil
}
