package postgres

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-slots/pkg/simpleslots"
	"github.com/tendant/simple-slots/pkg/simpleslots/blobkey"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a connection pool or a
// transaction. Begin on a transaction opens a savepoint.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Begin(context.Context) (pgx.Tx, error)
}

// Repository implements simpleslots.RevisionStore and
// simpleslots.SemanticStore using PostgreSQL
type Repository struct {
	db    DBTX
	blobs simpleslots.BlobStore
	keys  blobkey.Generator
}

// Option configures the repository
type Option func(*Repository)

// WithBlobStore stores slot bodies in store under keys built by keys
// instead of inline in revision_slot
func WithBlobStore(store simpleslots.BlobStore, keys blobkey.Generator) Option {
	return func(r *Repository) {
		r.blobs = store
		r.keys = keys
	}
}

// New creates a new PostgreSQL repository
func New(db DBTX, options ...Option) *Repository {
	r := &Repository{db: db}
	for _, option := range options {
		option(r)
	}
	if r.blobs != nil && r.keys == nil {
		r.keys = blobkey.NewRecommendedGenerator()
	}
	return r
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool, options ...Option) *Repository {
	return New(pool, options...)
}

// Migrate creates the tables when they do not exist
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if strings.Contains(pgErr.ConstraintName, "page") {
				return fmt.Errorf("page already exists")
			}
			return fmt.Errorf("duplicate entry")
		case "23503": // foreign_key_violation
			return fmt.Errorf("referenced record not found")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("record not found")
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

// Page operations

const pageColumns = `id, title, latest_revision_id, created_at, updated_at`

func scanPage(row pgx.Row) (*simpleslots.Page, error) {
	var (
		page   simpleslots.Page
		latest *int64
	)
	if err := row.Scan(&page.ID, &page.Title, &latest, &page.CreatedAt, &page.UpdatedAt); err != nil {
		return nil, err
	}
	if latest != nil {
		page.LatestRevisionID = *latest
	}
	return &page, nil
}

func (r *Repository) GetPage(ctx context.Context, title string) (*simpleslots.Page, error) {
	page, err := scanPage(r.db.QueryRow(ctx, `SELECT `+pageColumns+` FROM page WHERE title = $1`, title))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simpleslots.ErrPageNotFound
	}
	if err != nil {
		return nil, handlePostgresError("get page", err)
	}
	return page, nil
}

func (r *Repository) GetPageByID(ctx context.Context, id int64) (*simpleslots.Page, error) {
	page, err := scanPage(r.db.QueryRow(ctx, `SELECT `+pageColumns+` FROM page WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simpleslots.ErrPageNotFound
	}
	if err != nil {
		return nil, handlePostgresError("get page by id", err)
	}
	return page, nil
}

func (r *Repository) ListPages(ctx context.Context, params simpleslots.ListPagesParams) ([]*simpleslots.Page, error) {
	var limit interface{}
	if params.Limit > 0 {
		limit = params.Limit
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+pageColumns+` FROM page ORDER BY id LIMIT $1 OFFSET $2`, limit, params.Offset)
	if err != nil {
		return nil, handlePostgresError("list pages", err)
	}
	defer rows.Close()

	var pages []*simpleslots.Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, handlePostgresError("list pages", err)
		}
		pages = append(pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("list pages", err)
	}
	return pages, nil
}

// Revision operations

func (r *Repository) GetCurrentRevision(ctx context.Context, title string) (*simpleslots.Revision, error) {
	page, err := r.GetPage(ctx, title)
	if err != nil {
		return nil, err
	}
	return r.loadRevision(ctx, r.db, page.LatestRevisionID)
}

func (r *Repository) GetRevision(ctx context.Context, id int64) (*simpleslots.Revision, error) {
	return r.loadRevision(ctx, r.db, id)
}

func (r *Repository) ListRevisions(ctx context.Context, title string) ([]*simpleslots.Revision, error) {
	page, err := r.GetPage(ctx, title)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id FROM revision WHERE page_id = $1 ORDER BY id DESC`, page.ID)
	if err != nil {
		return nil, handlePostgresError("list revisions", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, handlePostgresError("list revisions", err)
	}

	revisions := make([]*simpleslots.Revision, 0, len(ids))
	for _, id := range ids {
		rev, err := r.loadRevision(ctx, r.db, id)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, nil
}

func (r *Repository) loadRevision(ctx context.Context, q DBTX, id int64) (*simpleslots.Revision, error) {
	var (
		rev      simpleslots.Revision
		parentID *int64
		flags    int64
	)
	err := q.QueryRow(ctx, `
		SELECT id, page_id, parent_id, actor_id, actor_name, comment, flags, hash, is_null, created_at
		FROM revision WHERE id = $1`, id).Scan(
		&rev.ID, &rev.PageID, &parentID, &rev.Actor.ID, &rev.Actor.Name,
		&rev.Comment, &flags, &rev.Hash, &rev.Null, &rev.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, simpleslots.ErrRevisionNotFound
	}
	if err != nil {
		return nil, handlePostgresError("get revision", err)
	}
	if parentID != nil {
		rev.ParentID = *parentID
	}
	rev.Flags = simpleslots.EditFlags(flags)

	rows, err := q.Query(ctx, `SELECT role, model, data, blob_key FROM revision_slot WHERE revision_id = $1`, id)
	if err != nil {
		return nil, handlePostgresError("get revision slots", err)
	}
	type slotRow struct {
		role, model   string
		data, blobKey *string
	}
	var slotRows []slotRow
	for rows.Next() {
		var sr slotRow
		if err := rows.Scan(&sr.role, &sr.model, &sr.data, &sr.blobKey); err != nil {
			rows.Close()
			return nil, handlePostgresError("get revision slots", err)
		}
		slotRows = append(slotRows, sr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("get revision slots", err)
	}

	rev.Slots = make(map[string]*simpleslots.Slot, len(slotRows))
	for _, sr := range slotRows {
		content := &simpleslots.Content{Model: sr.model}
		switch {
		case sr.data != nil:
			content.Data = *sr.data
		case sr.blobKey != nil:
			data, err := r.readBlob(ctx, *sr.blobKey)
			if err != nil {
				return nil, err
			}
			content.Data = data
		}
		rev.Slots[sr.role] = simpleslots.NewSlot(sr.role, content)
	}

	tagRows, err := q.Query(ctx, `SELECT tag FROM revision_tag WHERE revision_id = $1 ORDER BY tag`, id)
	if err != nil {
		return nil, handlePostgresError("get revision tags", err)
	}
	rev.Tags, err = pgx.CollectRows(tagRows, pgx.RowTo[string])
	if err != nil {
		return nil, handlePostgresError("get revision tags", err)
	}

	return &rev, nil
}

func (r *Repository) readBlob(ctx context.Context, key string) (string, error) {
	if r.blobs == nil {
		return "", fmt.Errorf("slot body %s is external but no blob store is configured", key)
	}
	rc, err := r.blobs.Download(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", &simpleslots.StorageError{Key: key, Op: "read", Err: err}
	}
	return string(data), nil
}

// Save applies edit in one transaction. The page row is locked so
// concurrent saves of the same page are serialized, last write wins.
func (r *Repository) Save(ctx context.Context, title string, edit *simpleslots.PendingEdit) (*simpleslots.SaveResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handlePostgresError("begin save", err)
	}
	defer tx.Rollback(ctx)

	page, err := scanPage(tx.QueryRow(ctx,
		`SELECT `+pageColumns+` FROM page WHERE title = $1 FOR UPDATE`, title))
	if errors.Is(err, pgx.ErrNoRows) {
		page = nil
	} else if err != nil {
		return nil, handlePostgresError("lock page", err)
	}

	var parent *simpleslots.Revision
	if page != nil {
		parent, err = r.loadRevision(ctx, tx, page.LatestRevisionID)
		if err != nil {
			return nil, err
		}
	} else if edit.Null {
		return nil, simpleslots.ErrPageNotFound
	}

	slots := edit.Apply(parent)
	if _, ok := slots[simpleslots.MainSlot]; !ok {
		return nil, &simpleslots.PageError{Title: title, Op: "save", Err: errors.New("revision has no main slot")}
	}
	hash := simpleslots.RevisionHash(slots)

	if parent != nil && !edit.Null && parent.Hash == hash {
		return &simpleslots.SaveResult{Page: page, Revision: parent}, nil
	}

	now := time.Now().UTC()
	created := false
	if page == nil {
		page = &simpleslots.Page{Title: title, CreatedAt: now}
		err = tx.QueryRow(ctx,
			`INSERT INTO page (title, created_at, updated_at) VALUES ($1, $2, $2) RETURNING id`,
			title, now).Scan(&page.ID)
		if err != nil {
			return nil, handlePostgresError("create page", err)
		}
		created = true
	}

	rev := &simpleslots.Revision{
		PageID:    page.ID,
		Slots:     slots,
		Actor:     edit.Actor,
		Comment:   edit.Comment,
		Flags:     edit.Flags,
		Tags:      append([]string(nil), edit.Tags()...),
		Hash:      hash,
		Null:      edit.Null,
		CreatedAt: now,
	}
	var parentID *int64
	if parent != nil {
		rev.ParentID = parent.ID
		parentID = &parent.ID
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO revision (page_id, parent_id, actor_id, actor_name, comment, flags, hash, is_null, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		rev.PageID, parentID, rev.Actor.ID, rev.Actor.Name, rev.Comment,
		int64(rev.Flags), rev.Hash, rev.Null, rev.CreatedAt).Scan(&rev.ID)
	if err != nil {
		return nil, handlePostgresError("create revision", err)
	}

	for role, slot := range slots {
		if err := r.insertSlot(ctx, tx, rev.ID, slot, parent.Slot(role)); err != nil {
			return nil, err
		}
	}

	for _, tag := range rev.Tags {
		if _, err := tx.Exec(ctx,
			`INSERT INTO revision_tag (revision_id, tag) VALUES ($1, $2)`, rev.ID, tag); err != nil {
			return nil, handlePostgresError("tag revision", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE page SET latest_revision_id = $2, updated_at = $3 WHERE id = $1`,
		page.ID, rev.ID, now); err != nil {
		return nil, handlePostgresError("update page", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, handlePostgresError("commit save", err)
	}

	page.LatestRevisionID = rev.ID
	page.UpdatedAt = now
	return &simpleslots.SaveResult{
		Page:     page,
		Revision: rev,
		Changed:  parent == nil || parent.Hash != hash,
		Created:  created,
	}, nil
}

// insertSlot records slot for revisionID. With a blob store the body is
// uploaded under its content-addressed key unless the parent already holds
// the same content.
func (r *Repository) insertSlot(ctx context.Context, tx pgx.Tx, revisionID int64, slot, previous *simpleslots.Slot) error {
	var (
		data    *string
		blobKey *string
	)
	if r.blobs == nil {
		data = &slot.Content.Data
	} else {
		key := r.keys.GenerateKey(slot.Hash, &blobkey.KeyMetadata{Role: slot.Role, Model: slot.Content.Model})
		if previous == nil || previous.Hash != slot.Hash {
			if err := r.blobs.Upload(ctx, key, bytes.NewReader([]byte(slot.Content.Data))); err != nil {
				return err
			}
		}
		blobKey = &key
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO revision_slot (revision_id, role, model, content_hash, data, blob_key)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		revisionID, slot.Role, slot.Content.Model, slot.Hash, data, blobKey)
	if err != nil {
		return handlePostgresError("create revision slot", err)
	}
	return nil
}

// Semantic data operations

func (r *Repository) SetSemanticData(ctx context.Context, data *simpleslots.SemanticData) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return handlePostgresError("begin semantic update", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM semantic_data WHERE subject = $1`, data.Subject); err != nil {
		return handlePostgresError("clear semantic data", err)
	}

	batch := &pgx.Batch{}
	for _, property := range data.PropertyKeys() {
		for i, value := range data.Values(property) {
			batch.Queue(`INSERT INTO semantic_data (subject, property, value, ordinal) VALUES ($1, $2, $3, $4)`,
				data.Subject, property, value, i)
		}
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return handlePostgresError("store semantic data", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return handlePostgresError("commit semantic update", err)
	}
	return nil
}

func (r *Repository) GetSemanticData(ctx context.Context, subject string) (*simpleslots.SemanticData, error) {
	rows, err := r.db.Query(ctx,
		`SELECT property, value FROM semantic_data WHERE subject = $1 ORDER BY property, ordinal`, subject)
	if err != nil {
		return nil, handlePostgresError("get semantic data", err)
	}
	defer rows.Close()

	data := simpleslots.NewSemanticData(subject)
	found := false
	for rows.Next() {
		var property, value string
		if err := rows.Scan(&property, &value); err != nil {
			return nil, handlePostgresError("get semantic data", err)
		}
		data.AddPropertyValue(property, value)
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError("get semantic data", err)
	}
	if !found {
		return nil, simpleslots.ErrSemanticDataNotFound
	}
	return data, nil
}
