package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/dmitrijs2005/kidsync/internal/dbx"
	"github.com/dmitrijs2005/kidsync/internal/models"
)

// keyChunk bounds the IN list size, well under sqlite's variable limit.
const keyChunk = 500

const dataColumns = `natural_key, org_prefix, case_number, org_name,
	first_name, middle_name, last_name, race, gender, hair_color, eye_color,
	height_imperial, height_metric, weight_imperial, weight_metric,
	date_missing, date_of_birth, age, est_age_lower, est_age_upper,
	city, state, country, thumbnail_url, case_type, description, has_detail`

const dataColumnCount = 27

const selectColumns = `id, ` + dataColumns

const updateSet = `natural_key = ?, org_prefix = ?, case_number = ?, org_name = ?,
	first_name = ?, middle_name = ?, last_name = ?, race = ?, gender = ?, hair_color = ?, eye_color = ?,
	height_imperial = ?, height_metric = ?, weight_imperial = ?, weight_metric = ?,
	date_missing = ?, date_of_birth = ?, age = ?, est_age_lower = ?, est_age_upper = ?,
	city = ?, state = ?, country = ?, thumbnail_url = ?, case_type = ?, description = ?, has_detail = ?`

// SQLRepository implements Repository over a DBTX (either *sql.DB or *sql.Tx)
// for both sqlite and postgres.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func (r *SQLRepository) q(query string) string {
	return dbx.Rebind(r.dialect, query)
}

func dataArgs(rec *models.Record) []any {
	return []any{
		rec.NaturalKey, rec.OrgPrefix, rec.CaseNumber, rec.OrgName,
		rec.FirstName, rec.MiddleName, rec.LastName, rec.Race, rec.Gender, rec.HairColor, rec.EyeColor,
		rec.HeightImperial, rec.HeightMetric, rec.WeightImperial, rec.WeightMetric,
		rec.DateMissing, rec.DateOfBirth, rec.Age, rec.EstAgeLower, rec.EstAgeUpper,
		rec.City, rec.State, rec.Country, rec.ThumbnailURL, rec.CaseType, rec.Description, rec.HasDetail,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (models.Record, error) {
	var rec models.Record
	err := s.Scan(
		&rec.ID,
		&rec.NaturalKey, &rec.OrgPrefix, &rec.CaseNumber, &rec.OrgName,
		&rec.FirstName, &rec.MiddleName, &rec.LastName, &rec.Race, &rec.Gender, &rec.HairColor, &rec.EyeColor,
		&rec.HeightImperial, &rec.HeightMetric, &rec.WeightImperial, &rec.WeightMetric,
		&rec.DateMissing, &rec.DateOfBirth, &rec.Age, &rec.EstAgeLower, &rec.EstAgeUpper,
		&rec.City, &rec.State, &rec.Country, &rec.ThumbnailURL, &rec.CaseType, &rec.Description, &rec.HasDetail,
	)
	return rec, err
}

func (r *SQLRepository) GetByKey(ctx context.Context, key string) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+selectColumns+` FROM records WHERE natural_key = ?`), key)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record[%s]: %w", key, err)
	}
	return &rec, nil
}

func (r *SQLRepository) IDsByKeys(ctx context.Context, keys []string) (map[string]int64, error) {
	result := make(map[string]int64, len(keys))

	for start := 0; start < len(keys); start += keyChunk {
		end := min(start+keyChunk, len(keys))
		chunk := keys[start:end]

		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}

		query := `SELECT natural_key, id FROM records WHERE natural_key IN (` + dbx.Placeholders(len(chunk)) + `)`
		rows, err := r.db.QueryContext(ctx, r.q(query), args...)
		if err != nil {
			return nil, fmt.Errorf("failed to probe record keys: %w", err)
		}

		for rows.Next() {
			var key string
			var id int64
			if err := rows.Scan(&key, &id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan record key: %w", err)
			}
			result[key] = id
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to iterate record keys: %w", err)
		}
	}
	return result, nil
}

func (r *SQLRepository) InsertMany(ctx context.Context, recs []*models.Record) error {
	query := r.q(`INSERT INTO records (` + dataColumns + `) VALUES (` + dbx.Placeholders(dataColumnCount) + `) RETURNING id`)

	for _, rec := range recs {
		if err := r.db.QueryRowContext(ctx, query, dataArgs(rec)...).Scan(&rec.ID); err != nil {
			return fmt.Errorf("failed to insert record[%s]: %w", rec.NaturalKey, err)
		}
	}
	return nil
}

func (r *SQLRepository) UpdateMany(ctx context.Context, recs []*models.Record) error {
	query := r.q(`UPDATE records SET ` + updateSet + ` WHERE id = ?`)

	for _, rec := range recs {
		args := append(dataArgs(rec), rec.ID)
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update record[%s]: %w", rec.NaturalKey, err)
		}
		ra, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if ra != 1 {
			return fmt.Errorf("update record[%s] id %d: %w", rec.NaturalKey, rec.ID, common.ErrNotFound)
		}
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, offset, limit int) ([]models.Record, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+selectColumns+` FROM records ORDER BY id LIMIT ? OFFSET ?`), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return collect(rows)
}

// likeEscaper makes LIKE wildcards in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindByName matches first or last name case-insensitively. An empty name
// matches nothing.
func (r *SQLRepository) FindByName(ctx context.Context, name string) ([]models.Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(name)) + "%"

	rows, err := r.db.QueryContext(ctx, r.q(`SELECT `+selectColumns+` FROM records
		WHERE LOWER(first_name) LIKE ? ESCAPE '\' OR LOWER(last_name) LIKE ? ESCAPE '\'
		ORDER BY id`), pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]models.Record, error) {
	defer rows.Close()

	var result []models.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return result, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) DeleteAll(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM records`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}
