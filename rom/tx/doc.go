// Package tx groups byte writes into transactions backed by a begin-time
// backup.
//
// Transaction protocol:
//  1. Begin() - create a full backup and record its id
//  2. Write() - validate and apply each write immediately, buffering its report
//  3. Commit() - keep the writes (and the backup), or
//     Rollback() - restore the backup and discard the reports
//
// Reads during a transaction see every applied write; there is no
// isolation.
//
// A failed Write does NOT roll the transaction back. The image keeps the
// writes that succeeded until the caller calls Rollback. Callers that want
// guaranteed cleanup use Coordinator.Run, or defer a Rollback:
//
//	t, err := coord.Begin()
//	if err != nil {
//		return err
//	}
//	defer func() {
//		if t.State() == tx.StateActive {
//			_ = t.Rollback()
//		}
//	}()
//	if err := t.Write(0x274F4, 0xE7); err != nil {
//		return err
//	}
//	return t.Commit()
package tx
