package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"materiais/internal"
)

const materialColumns = `referencia, nome, marca, categoria, unidade, iva, precoCompra, precoVenda,
       stockAtual, fornecedor, notas, createdAt, updatedAt`

// UpsertMaterials writes every record keyed by referencia. A record that
// fails is reported in WriteErrors and the others still go through. A match
// rewrites every imported field and updatedAt but keeps createdAt,
// stockAtual, fornecedor and notas; it counts as modified only when an
// imported value differs from the stored one.
//
// The transaction ignores ctx cancellation: ctx is checked between records
// and whatever was written before it ended is committed.
func (d *DB) UpsertMaterials(ctx context.Context, records []internal.CatalogRecord) (internal.BulkWriteResult, error) {
	result := internal.BulkWriteResult{}
	if len(records) == 0 {
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	txCtx := context.WithoutCancel(ctx)
	tx, err := d.conn.BeginTx(txCtx, nil)
	if err != nil {
		return result, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	currentStmt, err := tx.PrepareContext(txCtx, `
SELECT nome, marca, categoria, unidade, iva, precoCompra, precoVenda
FROM materiais WHERE referencia = ?`)
	if err != nil {
		return result, fmt.Errorf("prepare lookup: %w", err)
	}
	defer currentStmt.Close()

	upsertStmt, err := tx.PrepareContext(txCtx, `
INSERT INTO materiais (
  referencia, nome, marca, categoria, unidade, iva, precoCompra, precoVenda,
  stockAtual, fornecedor, notas, createdAt, updatedAt
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(referencia) DO UPDATE SET
  nome=excluded.nome,
  marca=excluded.marca,
  categoria=excluded.categoria,
  unidade=excluded.unidade,
  iva=excluded.iva,
  precoCompra=excluded.precoCompra,
  precoVenda=excluded.precoVenda,
  updatedAt=excluded.updatedAt
`)
	if err != nil {
		return result, fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsertStmt.Close()

	var ctxErr error
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}

		var stored internal.CatalogRecord
		existed := true
		err := currentStmt.QueryRowContext(txCtx, rec.Referencia).Scan(
			&stored.Nome, &stored.Marca, &stored.Categoria, &stored.Unidade, &stored.IVA, &stored.PrecoCompra, &stored.PrecoVenda,
		)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				result.WriteErrors = append(result.WriteErrors, internal.WriteError{Referencia: rec.Referencia, Message: err.Error()})
				continue
			}
			existed = false
		}

		if _, err := upsertStmt.ExecContext(txCtx,
			rec.Referencia, rec.Nome, rec.Marca, rec.Categoria, rec.Unidade, rec.IVA, rec.PrecoCompra, rec.PrecoVenda,
			rec.StockAtual, rec.Fornecedor, rec.Notas, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		); err != nil {
			result.WriteErrors = append(result.WriteErrors, internal.WriteError{Referencia: rec.Referencia, Message: err.Error()})
			continue
		}

		switch {
		case !existed:
			result.Upserted++
		case importedFieldsDiffer(stored, rec):
			result.Matched++
			result.Modified++
		default:
			result.Matched++
		}
	}

	if err := tx.Commit(); err != nil {
		return internal.BulkWriteResult{}, fmt.Errorf("commit upsert: %w", err)
	}
	return result, ctxErr
}

func importedFieldsDiffer(stored, rec internal.CatalogRecord) bool {
	return stored.Nome != rec.Nome ||
		stored.Marca != rec.Marca ||
		stored.Categoria != rec.Categoria ||
		stored.Unidade != rec.Unidade ||
		stored.IVA != rec.IVA ||
		stored.PrecoCompra != rec.PrecoCompra ||
		stored.PrecoVenda != rec.PrecoVenda
}

func (d *DB) ListMaterials(ctx context.Context, categoria string) ([]internal.CatalogRecord, error) {
	query := `SELECT ` + materialColumns + ` FROM materiais`
	args := []any{}
	if categoria != "" {
		query += ` WHERE categoria = ?`
		args = append(args, categoria)
	}
	query += ` ORDER BY referencia ASC`

	rows, err := d.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CatalogRecord
	for rows.Next() {
		rec, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) GetMaterial(ctx context.Context, referencia string) (*internal.CatalogRecord, error) {
	row := d.conn.QueryRowContext(ctx, `SELECT `+materialColumns+` FROM materiais WHERE referencia = ?`, referencia)
	rec, err := scanMaterial(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (d *DB) CountMaterials(ctx context.Context) (int, error) {
	var n int
	err := d.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM materiais`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMaterial(row rowScanner) (internal.CatalogRecord, error) {
	var rec internal.CatalogRecord
	var createdAt, updatedAt string
	if err := row.Scan(
		&rec.Referencia, &rec.Nome, &rec.Marca, &rec.Categoria, &rec.Unidade, &rec.IVA, &rec.PrecoCompra, &rec.PrecoVenda,
		&rec.StockAtual, &rec.Fornecedor, &rec.Notas, &createdAt, &updatedAt,
	); err != nil {
		return internal.CatalogRecord{}, err
	}
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return rec, nil
}
