package services

import "sync"

// Registry lock per meja. Semua urutan check-then-act pada resource milik
// satu meja (sesi aktif, open bill, status meja) harus memegang lock ini
// selama transaksinya berjalan - pengganti row-level lock di storage.
var (
	tableLocksMu sync.Mutex
	tableLocks   = make(map[uint]*sync.Mutex)
)

// lockTable mengunci meja dan mengembalikan fungsi unlock-nya.
// Pemakaian: defer lockTable(tableID)()
func lockTable(tableID uint) func() {
	tableLocksMu.Lock()
	mu, ok := tableLocks[tableID]
	if !ok {
		mu = &sync.Mutex{}
		tableLocks[tableID] = mu
	}
	tableLocksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
