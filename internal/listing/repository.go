package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines data access methods for listings.
type Repository interface {
	Create(ctx context.Context, l *Listing) error
	GetByID(ctx context.Context, id string) (*Listing, error)
	List(ctx context.Context, filter Filter) ([]*Listing, int, error)
	Update(ctx context.Context, l *Listing) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Safe to interpolate: keys are checked against this map before use.
var sortColumns = map[string]string{
	"created_at": "l.created_at",
	"price":      "l.price",
	"title":      "l.title",
}

// likeEscaper makes user input match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func listQuery(filter Filter) squirrel.SelectBuilder {
	query := selectListings().Column("count(*) OVER() AS total_count")

	// Dynamic Filtering
	if filter.Keyword != "" {
		pattern := "%" + likeEscaper.Replace(filter.Keyword) + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"l.title": pattern},
			squirrel.ILike{"l.location": pattern},
			squirrel.ILike{"l.country": pattern},
		})
	}
	if filter.Country != "" {
		query = query.Where(squirrel.Eq{"lower(l.country)": strings.ToLower(filter.Country)})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"l.owner_id": filter.OwnerID})
	}
	if filter.PriceMin != nil {
		query = query.Where(squirrel.GtOrEq{"l.price": *filter.PriceMin})
	}
	if filter.PriceMax != nil {
		query = query.Where(squirrel.LtOrEq{"l.price": *filter.PriceMax})
	}

	orderBy, ok := sortColumns[filter.SortBy]
	if !ok {
		orderBy = sortColumns["created_at"]
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	// id breaks ties so pages are stable.
	query = query.OrderBy(orderBy+" "+orderDir, "l.id "+orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	return query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))
}

func selectListings() squirrel.SelectBuilder {
	return psql.Select(
		"l.id", "l.owner_id", "u.display_name", "l.title", "l.description", "l.price",
		"l.location", "l.country", "l.image_file_id", "f.thumbnail_path IS NOT NULL",
		"l.created_at", "l.updated_at",
	).
		From("public.listings l").
		Join("public.users u ON l.owner_id = u.id").
		LeftJoin("public.files f ON l.image_file_id = f.id")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner, extra ...any) (*Listing, error) {
	var l Listing
	dest := []any{
		&l.ID, &l.OwnerID, &l.OwnerName, &l.Title, &l.Description, &l.Price,
		&l.Location, &l.Country, &l.ImageFileID, &l.HasThumbnail,
		&l.CreatedAt, &l.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *pgxRepository) Create(ctx context.Context, l *Listing) error {
	query, args, err := psql.Insert("public.listings").
		Columns("owner_id", "title", "description", "price", "location", "country", "image_file_id").
		Values(l.OwnerID, l.Title, l.Description, l.Price, l.Location, l.Country, l.ImageFileID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create listing query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return fmt.Errorf("create listing failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Listing, error) {
	query, args, err := selectListings().
		Where(squirrel.Eq{"l.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get listing query failed: %w", err)
	}

	l, err := scanListing(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get listing failed: %w", err)
	}
	return l, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Listing, int, error) {
	query := listQuery(filter)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list listings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list listings failed: %w", err)
	}
	defer rows.Close()

	listings := []*Listing{}
	var total int
	for rows.Next() {
		l, err := scanListing(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan listing failed: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate listings failed: %w", err)
	}

	return listings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, l *Listing) error {
	query, args, err := psql.Update("public.listings").
		Set("title", l.Title).
		Set("description", l.Description).
		Set("price", l.Price).
		Set("location", l.Location).
		Set("country", l.Country).
		Set("image_file_id", l.ImageFileID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": l.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update listing query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&l.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update listing failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.listings").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete listing query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete listing failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
