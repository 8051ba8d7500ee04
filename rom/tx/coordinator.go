package tx

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joshuapare/romkit/internal/format"
	"github.com/joshuapare/romkit/internal/logger"
	"github.com/joshuapare/romkit/pkg/types"
	"github.com/joshuapare/romkit/rom/addrspace"
	"github.com/joshuapare/romkit/rom/backup"
	"github.com/joshuapare/romkit/rom/patch"
)

// Image is the write surface a transaction drives. *patch.Engine
// satisfies it.
type Image interface {
	WriteByte(a addrspace.Address, v int) (patch.WriteReport, error)
	WriteBytes(a addrspace.Address, vals []int) ([]patch.WriteReport, error)
	WriteU16(a addrspace.Address, v uint16) ([]patch.WriteReport, error)
	RecomputeChecksum() (format.Checksum, error)
}

// Backups creates and restores the begin-time backup. *backup.Manager
// satisfies it.
type Backups interface {
	CreateBackup(description string) (backup.Backup, error)
	RestoreBackup(id string) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithChecksumOnCommit recomputes the header checksum before every commit.
func WithChecksumOnCommit(on bool) Option {
	return func(c *Coordinator) { c.checksumOnCommit = on }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithClock sets the time source for audit entries.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator allows one active transaction per image.
//
// The Coordinator is NOT thread-safe. Only one goroutine should use it at
// a time.
type Coordinator struct {
	img              Image
	backups          Backups
	checksumOnCommit bool
	log              *slog.Logger
	now              func() time.Time
	active           *Transaction
	count            int // transactions begun
}

// NewCoordinator returns a Coordinator over img using backups for rollback.
func NewCoordinator(img Image, backups Backups, opts ...Option) *Coordinator {
	c := &Coordinator{img: img, backups: backups, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	c.log = logger.OrDiscard(c.log)
	return c
}

// Active returns the active transaction, or nil.
func (c *Coordinator) Active() *Transaction { return c.active }

// Begin backs up the image and opens a transaction. It fails with
// TransactionActive while another transaction is open.
func (c *Coordinator) Begin() (*Transaction, error) {
	const op = "tx.Begin"
	if c.active != nil {
		return nil, types.New(types.ErrKindTransactionActive, op,
			"transaction %d (backup %s) is still active", c.active.seq, c.active.backupID)
	}

	seq := c.count + 1
	b, err := c.backups.CreateBackup(fmt.Sprintf("transaction %d", seq))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.count = seq

	t := &Transaction{
		coord:    c,
		seq:      seq,
		backupID: b.ID,
		state:    StateActive,
		started:  c.now(),
	}
	t.audit.add(LogEntry{Time: t.started, Event: EventBegin, Detail: "backup " + b.ID})
	c.active = t
	c.log.Info("transaction begun", "tx", seq, "backup", b.ID)
	return t, nil
}

// Run executes fn inside a transaction. The transaction is committed when
// fn returns nil and rolled back when fn returns an error or panics; a
// panic is re-raised after the rollback.
func (c *Coordinator) Run(fn func(t *Transaction) error) (err error) {
	t, err := c.Begin()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := t.Rollback(); rbErr != nil {
				c.log.Error("rollback after panic failed", "tx", t.seq, "error", rbErr)
			}
			panic(p)
		}
	}()

	if fnErr := fn(t); fnErr != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", fnErr, rbErr)
		}
		return fnErr
	}
	if t.State() != StateActive {
		// fn finished the transaction itself.
		return nil
	}
	if err := t.Commit(); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return nil
}
