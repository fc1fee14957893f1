package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Document type codes used for numbering.
const (
	DocTypeProject = "PRJ"
	DocTypeInvoice = "RE"
)

// DocumentService hands out gapless per-company, per-year document numbers.
type DocumentService interface {
	// NextNumber allocates a number in its own transaction.
	NextNumber(ctx context.Context, companyID int, typeCode string, year int) (string, error)
	// NextNumberTx allocates a number inside the caller's transaction, so a
	// rolled back insert also gives the number back.
	NextNumberTx(ctx context.Context, tx pgx.Tx, companyID int, typeCode string, year int) (string, error)
}

type documentService struct {
	pool *pgxpool.Pool
}

func NewDocumentService(pool *pgxpool.Pool) DocumentService {
	return &documentService{pool: pool}
}

func (s *documentService) NextNumber(ctx context.Context, companyID int, typeCode string, year int) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	num, err := s.NextNumberTx(ctx, tx, companyID, typeCode, year)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return num, nil
}

func (s *documentService) NextNumberTx(ctx context.Context, tx pgx.Tx, companyID int, typeCode string, year int) (string, error) {
	if typeCode == "" {
		return "", invalidf("document type code is required")
	}

	// The upsert row lock serializes concurrent callers for the same sequence.
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO document_sequences (company_id, type_code, financial_year, last_number)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (company_id, type_code, financial_year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, companyID, typeCode, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}

	return formatDocumentNumber(typeCode, year, lastNumber), nil
}

func formatDocumentNumber(typeCode string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%05d", typeCode, year, n)
}
