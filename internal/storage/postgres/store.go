// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pii-linkage/internal/dedup"
	"pii-linkage/internal/normalize"
	"pii-linkage/internal/policy"
)

// Store is a dedup.SubjectStore backed by PostgreSQL. It also records
// storage payloads. Errors never include subject field values.
type Store struct {
	pool *pgxpool.Pool
}

var _ dedup.SubjectStore = (*Store)(nil)

// NewStore wraps a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const subjectColumns = `subject_id::text,
	COALESCE(canonical_name, ''), COALESCE(canonical_email, ''), COALESCE(canonical_phone, ''),
	canonical_address, pii_types_found, source_records, merge_confidence,
	review_status, notification_required, created_at, updated_at`

func (s *Store) Get(ctx context.Context, subjectID string) (*dedup.Subject, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE subject_id = $1`, subjectID)
	return scanSubject(row)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*dedup.Subject, error) {
	if email == "" {
		return nil, dedup.ErrSubjectNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects
		WHERE canonical_email = $1 ORDER BY created_at, subject_id LIMIT 1`, email)
	return scanSubject(row)
}

func (s *Store) FindByPhone(ctx context.Context, phone string) (*dedup.Subject, error) {
	if phone == "" {
		return nil, dedup.ErrSubjectNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+subjectColumns+` FROM subjects
		WHERE canonical_phone = $1 ORDER BY created_at, subject_id LIMIT 1`, phone)
	return scanSubject(row)
}

func (s *Store) Insert(ctx context.Context, subj *dedup.Subject) error {
	addr, err := encodeAddress(subj.CanonicalAddress)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO subjects (
			subject_id, canonical_name, canonical_email, canonical_phone, canonical_address,
			pii_types_found, source_records, merge_confidence, review_status,
			notification_required, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7, $8, $9, $10, $11, $12)`,
		subj.SubjectID, subj.CanonicalName, subj.CanonicalEmail, subj.CanonicalPhone, addr,
		nonNil(subj.PIITypesFound), nonNil(subj.SourceRecords), subj.MergeConfidence,
		string(subj.ReviewStatus), subj.NotificationRequired, subj.CreatedAt, subj.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert subject: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, subj *dedup.Subject) error {
	addr, err := encodeAddress(subj.CanonicalAddress)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE subjects SET
			canonical_name = NULLIF($2, ''), canonical_email = NULLIF($3, ''),
			canonical_phone = NULLIF($4, ''), canonical_address = $5,
			pii_types_found = $6, source_records = $7, merge_confidence = $8,
			review_status = $9, notification_required = $10, updated_at = $11
		WHERE subject_id = $1`,
		subj.SubjectID, subj.CanonicalName, subj.CanonicalEmail, subj.CanonicalPhone, addr,
		nonNil(subj.PIITypesFound), nonNil(subj.SourceRecords), subj.MergeConfidence,
		string(subj.ReviewStatus), subj.NotificationRequired, subj.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update subject: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return dedup.ErrSubjectNotFound
	}
	return nil
}

// SavePayloads writes entries with a single COPY.
func (s *Store) SavePayloads(ctx context.Context, entries []policy.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		var encrypted *string
		if e.RawValueEncrypted != "" {
			encrypted = &e.RawValueEncrypted
		}
		rows = append(rows, []any{
			e.RecordID, e.DocumentID, e.EntityType, e.NormalizedValue, e.HashedValue,
			encrypted, e.StoragePolicy, e.RetentionUntil, e.WrittenAt,
		})
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"storage_payloads"},
		[]string{"record_id", "document_id", "entity_type", "normalized_value", "hashed_value",
			"raw_value_encrypted", "storage_policy", "retention_until", "written_at"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to save storage payloads: %w", err)
	}
	return nil
}

// PurgeExpiredPayloads drops the encrypted raw value of every payload whose
// retention deadline has passed and returns how many were purged.
func (s *Store) PurgeExpiredPayloads(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE storage_payloads
		SET raw_value_encrypted = NULL, retention_until = NULL, storage_policy = 'hash'
		WHERE retention_until IS NOT NULL AND retention_until <= now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired payloads: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSubject(row pgx.Row) (*dedup.Subject, error) {
	var (
		subj   dedup.Subject
		addr   []byte
		status string
	)
	err := row.Scan(&subj.SubjectID, &subj.CanonicalName, &subj.CanonicalEmail, &subj.CanonicalPhone,
		&addr, &subj.PIITypesFound, &subj.SourceRecords, &subj.MergeConfidence,
		&status, &subj.NotificationRequired, &subj.CreatedAt, &subj.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dedup.ErrSubjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subject: %w", err)
	}
	subj.ReviewStatus = dedup.ReviewStatus(status)
	if len(addr) > 0 {
		var a normalize.Address
		if err := json.Unmarshal(addr, &a); err != nil {
			return nil, fmt.Errorf("failed to decode canonical address of subject %s: %w", subj.SubjectID, err)
		}
		subj.CanonicalAddress = &a
	}
	return &subj, nil
}

func encodeAddress(a *normalize.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode canonical address: %w", err)
	}
	return b, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
