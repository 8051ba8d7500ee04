package tx

import (
	"fmt"
	"time"

	"github.com/joshuapare/romkit/pkg/types"
	"github.com/joshuapare/romkit/rom/addrspace"
	"github.com/joshuapare/romkit/rom/patch"
)

// State is a transaction's lifecycle state.
type State int

const (
	StateActive State = iota
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transaction is an ordered run of applied writes plus the backup taken
// when it began.
type Transaction struct {
	coord    *Coordinator
	seq      int
	backupID string
	state    State
	started  time.Time
	reports  []patch.WriteReport
	audit    Log
}

// BackupID returns the id of the begin-time backup.
func (t *Transaction) BackupID() string { return t.backupID }

// State returns the current state.
func (t *Transaction) State() State { return t.state }

// Reports returns a copy of the buffered write reports in issue order.
// The list is empty after rollback.
func (t *Transaction) Reports() []patch.WriteReport {
	out := make([]patch.WriteReport, len(t.reports))
	copy(out, t.reports)
	return out
}

// Log returns the audit log. It keeps every step, including failed writes
// and the rollback itself.
func (t *Transaction) Log() *Log { return &t.audit }

// Write applies v at a. A failed write leaves earlier writes in place; the
// caller decides whether to Rollback.
func (t *Transaction) Write(a addrspace.Address, v int) error {
	if err := t.checkActive("tx.Write"); err != nil {
		return err
	}
	r, err := t.coord.img.WriteByte(a, v)
	if err != nil {
		return t.writeFailed(a, err)
	}
	t.record(r)
	return nil
}

// WriteBytes applies vals starting at a. The run itself is all-or-nothing.
func (t *Transaction) WriteBytes(a addrspace.Address, vals []int) error {
	if err := t.checkActive("tx.WriteBytes"); err != nil {
		return err
	}
	rs, err := t.coord.img.WriteBytes(a, vals)
	if err != nil {
		return t.writeFailed(a, err)
	}
	t.record(rs...)
	return nil
}

// WriteU16 applies v little-endian at a and a+1.
func (t *Transaction) WriteU16(a addrspace.Address, v uint16) error {
	if err := t.checkActive("tx.WriteU16"); err != nil {
		return err
	}
	rs, err := t.coord.img.WriteU16(a, v)
	if err != nil {
		return t.writeFailed(a, err)
	}
	t.record(rs...)
	return nil
}

// Commit keeps the applied writes. The begin-time backup is retained so
// the transaction can still be undone by restoring it manually.
func (t *Transaction) Commit() error {
	const op = "tx.Commit"
	if err := t.checkActive(op); err != nil {
		return err
	}
	c := t.coord
	if c.checksumOnCommit {
		sum, err := c.img.RecomputeChecksum()
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		t.audit.add(LogEntry{Time: c.now(), Event: EventChecksum, Detail: sum.String()})
	}
	t.state = StateCommitted
	t.audit.add(LogEntry{Time: c.now(), Event: EventCommit, Detail: fmt.Sprintf("%d writes", len(t.reports))})
	c.release(t)
	c.log.Info("transaction committed", "tx", t.seq, "writes", len(t.reports), "backup", t.backupID)
	return nil
}

// Rollback restores the begin-time backup and discards the buffered
// reports. Calling it again re-applies the same restore, unless another
// transaction has since become active. Rolling back a committed
// transaction is a TransactionState error; restore its backup through the
// backup manager instead.
func (t *Transaction) Rollback() error {
	const op = "tx.Rollback"
	c := t.coord
	switch t.state {
	case StateCommitted:
		return types.New(types.ErrKindTransactionState, op, "transaction %d is committed", t.seq)
	case StateRolledBack:
		if c.active != nil {
			return types.New(types.ErrKindTransactionActive, op,
				"transaction %d is active; not restoring backup %s", c.active.seq, t.backupID)
		}
	}

	if err := c.backups.RestoreBackup(t.backupID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	discarded := len(t.reports)
	t.reports = nil
	t.state = StateRolledBack
	t.audit.add(LogEntry{Time: c.now(), Event: EventRollback, Detail: "restored backup " + t.backupID})
	c.release(t)
	c.log.Info("transaction rolled back", "tx", t.seq, "discarded_writes", discarded, "backup", t.backupID)
	return nil
}

func (t *Transaction) checkActive(op string) error {
	if t.state != StateActive {
		return types.New(types.ErrKindTransactionState, op, "transaction %d is %s", t.seq, t.state)
	}
	return nil
}

func (t *Transaction) record(rs ...patch.WriteReport) {
	t.reports = append(t.reports, rs...)
	t.audit.add(LogEntry{Time: t.coord.now(), Event: EventWrite, Reports: rs})
}

func (t *Transaction) writeFailed(a addrspace.Address, err error) error {
	t.audit.add(LogEntry{Time: t.coord.now(), Event: EventWriteFailed, Detail: fmt.Sprintf("%s: %v", a, err)})
	t.coord.log.Warn("transaction write failed", "tx", t.seq, "address", a.String(), "error", err)
	return err
}

func (c *Coordinator) release(t *Transaction) {
	if c.active == t {
		c.active = nil
	}
}
