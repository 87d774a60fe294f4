package rediskeys

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// KeyType is the container type of a Redis key as reported by TYPE
type KeyType int

// The container types that can be measured
const (
	KeyTypeNone KeyType = iota
	KeyTypeString
	KeyTypeList
	KeyTypeHash
	KeyTypeSet
	KeyTypeZSet
	KeyTypeStream
)

var keyTypeNames = map[string]KeyType{
	"none":   KeyTypeNone,
	"string": KeyTypeString,
	"list":   KeyTypeList,
	"hash":   KeyTypeHash,
	"set":    KeyTypeSet,
	"zset":   KeyTypeZSet,
	"stream": KeyTypeStream,
}

// ParseKeyType converts the output of TYPE to a KeyType
func ParseKeyType(s string) (KeyType, bool) {
	kt, ok := keyTypeNames[s]
	return kt, ok
}

func (kt KeyType) String() string {
	for name, t := range keyTypeNames {
		if t == kt {
			return name
		}
	}
	return fmt.Sprintf("KeyType(%d)", int(kt))
}

// Resolution is the single scalar measured for a key
type Resolution struct {
	Type KeyType
	// Number of elements, fields or members for container types
	Length int64
	// The stored value for string keys
	Raw string
}

// Missing is true if the key does not exist or holds an empty string, in which
// case the configured missing key value should be reported instead.
func (r Resolution) Missing() bool {
	return r.Type == KeyTypeNone || (r.Type == KeyTypeString && r.Raw == "")
}

// Number converts the resolution to a metric value.  String values must be
// numeric.
func (r Resolution) Number() (Number, error) {
	switch r.Type {
	case KeyTypeString:
		return ParseNumber(r.Raw)
	case KeyTypeList, KeyTypeHash, KeyTypeSet, KeyTypeZSet, KeyTypeStream:
		return IntNumber(r.Length), nil
	default:
		return Number{}, errors.New("key does not exist")
	}
}

// Value is the raw measurement for display purposes
func (r Resolution) Value() string {
	switch r.Type {
	case KeyTypeNone:
		return "None"
	case KeyTypeString:
		return r.Raw
	default:
		return IntNumber(r.Length).String()
	}
}

// Resolve determines the container type of key and measures it: the length
// of lists and streams, the number of fields of hashes, the cardinality of
// sets and sorted sets, and the stored value of strings.
func Resolve(ctx context.Context, c Client, key string) (Resolution, error) {
	typeName, err := c.Type(ctx, key)
	if err != nil {
		return Resolution{}, errors.Wrapf(err, "could not get type of key %s", key)
	}

	kt, ok := ParseKeyType(typeName)
	if !ok {
		return Resolution{}, &UnknownKeyTypeError{Key: key, Type: typeName}
	}

	res := Resolution{Type: kt}
	switch kt {
	case KeyTypeNone:
		return res, nil
	case KeyTypeString:
		var exists bool
		res.Raw, exists, err = c.Get(ctx, key)
		if err == nil && !exists {
			// Deleted between TYPE and GET
			res.Type = KeyTypeNone
		}
	case KeyTypeList:
		res.Length, err = c.LLen(ctx, key)
	case KeyTypeHash:
		res.Length, err = c.HLen(ctx, key)
	case KeyTypeSet:
		res.Length, err = c.SCard(ctx, key)
	case KeyTypeZSet:
		res.Length, err = c.ZCard(ctx, key)
	case KeyTypeStream:
		res.Length, err = c.XLen(ctx, key)
	default:
		return Resolution{}, &UnknownKeyTypeError{Key: key, Type: typeName}
	}

	if err != nil {
		return Resolution{}, errors.Wrapf(err, "could not measure %s key %s", kt, key)
	}
	return res, nil
}
