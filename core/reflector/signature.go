package reflector

import (
	"encoding/binary"
	"reflect"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// Signature identifies the argument-type tuple of a message. Behaviors are
// registered under a signature and incoming messages are dispatched by it.
type Signature uint64

var (
	muSig    sync.RWMutex
	sigCache = make(map[string]Signature)
)

// SignatureOf returns the signature for the dynamic types of the given
// argument tuple.
func SignatureOf(args ...any) Signature {
	types := make([]reflect.Type, len(args))
	for i, a := range args {
		types[i] = reflect.TypeOf(a)
	}
	return SignatureForTypes(types...)
}

// SignatureFor returns the signature for the single-argument tuple (T).
func SignatureFor[T any]() Signature {
	return SignatureForTypes(reflect.TypeOf((*T)(nil)).Elem())
}

// SignatureFor2 returns the signature for the two-argument tuple (A, B).
func SignatureFor2[A, B any]() Signature {
	return SignatureForTypes(reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem())
}

// SignatureFor3 returns the signature for the three-argument tuple (A, B, C).
func SignatureFor3[A, B, C any]() Signature {
	return SignatureForTypes(reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem(), reflect.TypeOf((*C)(nil)).Elem())
}

// SignatureForTypes computes the 64-bit signature of a type tuple as a
// blake2b hash over the qualified type names, separated by a NUL byte so
// ("ab","c") and ("a","bc") cannot collide. Results are cached.
func SignatureForTypes(types ...reflect.Type) Signature {
	key := tupleKey(types)

	muSig.RLock()
	sig, ok := sigCache[key]
	muSig.RUnlock()
	if ok {
		return sig
	}

	h, err := blake2b.New(8, nil)
	if err != nil {
		// blake2b.New only fails on bad key/size parameters; ours are fixed.
		panic(err)
	}
	h.Write([]byte(key))
	sig = Signature(binary.BigEndian.Uint64(h.Sum(nil)))

	muSig.Lock()
	if len(sigCache) >= maxCacheSize {
		sigCache = make(map[string]Signature)
	}
	sigCache[key] = sig
	muSig.Unlock()

	return sig
}

func tupleKey(types []reflect.Type) string {
	key := ""
	for _, t := range types {
		key += TypeInfoForType(t).Name + "\x00"
	}
	return key
}
