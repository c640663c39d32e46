package sysreset

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ovaprima-erp/ovaprima-erp/internal/platform/db"
	"github.com/ovaprima-erp/ovaprima-erp/internal/shared"
)

// Deletion order matters: child tables first so foreign keys never block
// the sweep.
var transactionalTables = []string{
	"sale_items",
	"sales",
	"purchase_items",
	"purchases",
	"productions",
	"petty_cash_transactions",
	"bank_transactions",
}

var masterTables = []string{
	"price_tiers",
	"products",
	"raw_materials",
	"customers",
	"suppliers",
}

// zeroedTables keep their rows; only their balances are reset.
var zeroedTables = []string{
	"bank_accounts",
}

var preserved = []string{
	"Akun pengguna, peran, dan hak akses",
	"Identitas login dan sesi",
	"Pengaturan sistem",
	"Log audit",
	"Rekening bank (saldo direset ke nol)",
}

// Service is the Postgres-backed reset collaborator.
type Service struct {
	pool    *pgxpool.Pool
	audit   *shared.AuditLogger
	printer *message.Printer
}

// NewService constructs the collaborator.
func NewService(pool *pgxpool.Pool, audit *shared.AuditLogger) *Service {
	return &Service{
		pool:    pool,
		audit:   audit,
		printer: message.NewPrinter(language.Indonesian),
	}
}

// Preview counts every affected table. The counts run concurrently; the
// grand total covers only rows that will actually be deleted.
func (s *Service) Preview(ctx context.Context) (Preview, int64, error) {
	type result struct {
		group string
		index int
		count TableCount
	}

	tables := make([]result, 0, len(transactionalTables)+len(masterTables)+len(zeroedTables))
	for i, t := range transactionalTables {
		tables = append(tables, result{group: "tx", index: i, count: TableCount{Table: t}})
	}
	for i, t := range masterTables {
		tables = append(tables, result{group: "master", index: i, count: TableCount{Table: t}})
	}
	for i, t := range zeroedTables {
		tables = append(tables, result{group: "zero", index: i, count: TableCount{Table: t}})
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i := range tables {
		i := i
		g.Go(func() error {
			row := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM `+tables[i].count.Table)
			return row.Scan(&tables[i].count.Rows)
		})
	}
	if err := g.Wait(); err != nil {
		return Preview{}, 0, fmt.Errorf("sysreset: preview counts: %w", err)
	}

	preview := Preview{
		Transactional: make([]TableCount, len(transactionalTables)),
		MasterData:    make([]TableCount, len(masterTables)),
		ResetToZero:   make([]TableCount, len(zeroedTables)),
		Preserved:     append([]string(nil), preserved...),
	}
	var total int64
	for _, r := range tables {
		switch r.group {
		case "tx":
			preview.Transactional[r.index] = r.count
			total += r.count.Rows
		case "master":
			preview.MasterData[r.index] = r.count
			total += r.count.Rows
		case "zero":
			preview.ResetToZero[r.index] = r.count
		}
	}
	return preview, total, nil
}

// Execute performs the reset in a single transaction: transactional tables
// first, then master data, then balance resets. The confirmation code is
// checked server-side so an execute call that skipped the phrase step is
// rejected before anything is touched.
func (s *Service) Execute(ctx context.Context, code string, confirmedAt time.Time, actorID string) (Report, error) {
	if code != ConfirmationCode {
		return Report{}, ErrInvalidCode
	}

	var total int64
	deletionLog := make([]string, 0, len(transactionalTables)+len(masterTables)+len(zeroedTables))

	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, table := range transactionalTables {
			n, err := s.clearTable(ctx, tx, table)
			if err != nil {
				return err
			}
			total += n
			deletionLog = append(deletionLog, s.printer.Sprintf("Menghapus %d baris dari tabel %s", n, table))
		}
		for _, table := range masterTables {
			n, err := s.clearTable(ctx, tx, table)
			if err != nil {
				return err
			}
			total += n
			deletionLog = append(deletionLog, s.printer.Sprintf("Menghapus %d baris dari tabel %s", n, table))
		}
		for _, table := range zeroedTables {
			tag, err := tx.Exec(ctx, `UPDATE `+table+` SET balance = 0`)
			if err != nil {
				return fmt.Errorf("sysreset: zero %s: %w", table, err)
			}
			deletionLog = append(deletionLog, s.printer.Sprintf("Mereset saldo %d baris pada tabel %s", tag.RowsAffected(), table))
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}

	report := Report{
		TotalDeleted: total,
		ResetAt:      time.Now().UTC(),
		DeletionLog:  deletionLog,
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "system.reset",
			Entity:   "system",
			EntityID: "reset-data",
			Meta: map[string]any{
				"total_deleted": total,
				"confirmed_at":  confirmedAt.UTC().Format(time.RFC3339),
			},
			At: report.ResetAt,
		}); err != nil {
			// The reset itself already committed; a lost audit row must not
			// fail the operation.
			return report, nil
		}
	}
	return report, nil
}

func (s *Service) clearTable(ctx context.Context, tx pgx.Tx, table string) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM `+table)
	if err != nil {
		return 0, fmt.Errorf("sysreset: clear %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

var _ Collaborator = (*Service)(nil)
