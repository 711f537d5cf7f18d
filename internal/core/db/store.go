package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/packgate/internal/selector"
	"github.com/solatis/packgate/internal/types"
)

// Store persists published pack records and evaluation results.
type Store struct {
	q *Queries
}

// NewStore wraps a loaded query set.
func NewStore(q *Queries) *Store {
	return &Store{q: q}
}

// packRecordRow is the scan target for pack_records. The pack document is
// stored as JSON; scope columns are duplicated for filtering without
// deserializing every row.
type packRecordRow struct {
	ID          string    `db:"pack_record_id"`
	Workspace   string    `db:"workspace"`
	ScopeLevel  string    `db:"scope_level"`
	PackID      string    `db:"pack_id"`
	Version     string    `db:"version"`
	Hash        string    `db:"content_hash"`
	Document    string    `db:"document"`
	PublishedAt time.Time `db:"published_at"`
}

// SavePackRecord publishes a pack and returns its record id.
func (s *Store) SavePackRecord(pack *types.Pack, publishedAt time.Time) (types.PackRecordID, error) {
	doc, err := json.Marshal(pack)
	if err != nil {
		return "", fmt.Errorf("failed to serialize pack: %w", err)
	}

	id := types.NewPackRecordID()
	_, err = s.q.Exec("insert-pack-record",
		string(id),
		pack.Scope.Workspace,
		string(pack.Scope.Level),
		pack.Metadata.ID,
		pack.Metadata.Version,
		pack.Hash,
		string(doc),
		publishedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save pack record: %w", err)
	}
	return id, nil
}

// ListPackRecords returns every published pack for a workspace, ready for
// scope resolution.
func (s *Store) ListPackRecords(workspace string) ([]selector.PackRecord, error) {
	var rows []packRecordRow
	if err := s.q.Select("list-pack-records", &rows, workspace); err != nil {
		return nil, fmt.Errorf("failed to list pack records: %w", err)
	}

	records := make([]selector.PackRecord, 0, len(rows))
	for _, row := range rows {
		var pack types.Pack
		if err := json.Unmarshal([]byte(row.Document), &pack); err != nil {
			return nil, fmt.Errorf("failed to deserialize pack record %s: %w", row.ID, err)
		}
		pack.Hash = row.Hash
		records = append(records, selector.PackRecord{
			ID:          types.PackRecordID(row.ID),
			Pack:        &pack,
			PublishedAt: row.PublishedAt,
		})
	}
	return records, nil
}

// GetPackRecord fetches one record by id; returns nil when absent.
func (s *Store) GetPackRecord(id types.PackRecordID) (*selector.PackRecord, error) {
	var row packRecordRow
	if err := s.q.Get("get-pack-record", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pack record: %w", err)
	}

	var pack types.Pack
	if err := json.Unmarshal([]byte(row.Document), &pack); err != nil {
		return nil, fmt.Errorf("failed to deserialize pack record %s: %w", row.ID, err)
	}
	pack.Hash = row.Hash
	return &selector.PackRecord{
		ID:          types.PackRecordID(row.ID),
		Pack:        &pack,
		PublishedAt: row.PublishedAt,
	}, nil
}

// evaluationRow is the scan target for evaluation_results.
type evaluationRow struct {
	ID          string    `db:"evaluation_id"`
	PackHash    string    `db:"pack_hash"`
	Decision    string    `db:"decision"`
	Result      string    `db:"result"`
	EvaluatedAt time.Time `db:"evaluated_at"`
}

// SaveEvaluation records one evaluation result for audit. The full result,
// findings and fingerprint included, is stored as JSON so replays can be
// compared byte-for-byte.
func (s *Store) SaveEvaluation(result *types.PackEvaluationResult, evaluatedAt time.Time) (types.EvaluationID, error) {
	doc, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("failed to serialize evaluation result: %w", err)
	}

	id := types.NewEvaluationID()
	_, err = s.q.Exec("insert-evaluation",
		string(id),
		result.PackHash,
		string(result.Decision),
		string(doc),
		evaluatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save evaluation: %w", err)
	}
	return id, nil
}

// GetEvaluation fetches one stored result by id; returns nil when absent.
func (s *Store) GetEvaluation(id types.EvaluationID) (*types.PackEvaluationResult, error) {
	var row evaluationRow
	if err := s.q.Get("get-evaluation", &row, string(id)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}

	var result types.PackEvaluationResult
	if err := json.Unmarshal([]byte(row.Result), &result); err != nil {
		return nil, fmt.Errorf("failed to deserialize evaluation %s: %w", row.ID, err)
	}
	return &result, nil
}

// ListEvaluationsByPack returns stored results for a pack hash, newest
// first, capped at limit.
func (s *Store) ListEvaluationsByPack(packHash string, limit int) ([]types.PackEvaluationResult, error) {
	var rows []evaluationRow
	if err := s.q.Select("list-evaluations-by-pack", &rows, packHash, limit); err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	results := make([]types.PackEvaluationResult, 0, len(rows))
	for _, row := range rows {
		var result types.PackEvaluationResult
		if err := json.Unmarshal([]byte(row.Result), &result); err != nil {
			return nil, fmt.Errorf("failed to deserialize evaluation %s: %w", row.ID, err)
		}
		results = append(results, result)
	}
	return results, nil
}
