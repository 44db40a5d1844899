package repositories

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
)

func userKey(id string) []byte            { return []byte("usr:" + id) }
func conversationKey(id uuid.UUID) []byte { return []byte("conv:" + id.String()) }
func messageKey(id uuid.UUID) []byte      { return []byte("msg:" + id.String()) }
func callKey(id uuid.UUID) []byte         { return []byte("call:" + id.String()) }

// messageIndexKey orders messages of a conversation chronologically.
// The 19-digit zero padding keeps lexicographic order aligned with time,
// and the UUID suffix disambiguates two messages on the same nanosecond.
func messageIndexKey(conversationID uuid.UUID, unixNano int64, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msgts:%s:%019d:%s", conversationID, unixNano, id))
}

func messageIndexPrefix(conversationID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msgts:%s:", conversationID))
}

// ringingKey points at the session currently ringing between a pair.
// Written on creation, removed by the first transition out of ringing.
func ringingKey(callerID, recipientID string) []byte {
	return []byte("ring:" + callerID + ":" + recipientID)
}

const lockStripes = 64

// recordLocks serializes read-modify-write cycles per record key, on top
// of Badger's transactional isolation. Two concurrent reactions on the
// same message take the same stripe and apply one after the other.
type recordLocks struct {
	stripes [lockStripes]sync.Mutex
}

func (l *recordLocks) lock(key []byte) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write(key)
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m
}
