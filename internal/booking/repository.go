package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/bay-booking-backend/internal/availability"
	"github.com/nekogravitycat/bay-booking-backend/internal/db"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/bay-booking-backend/internal/resource"
)

// Store persists bookings. Reads outside InTx see committed state only.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error

	Get(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	FindByCorrelationID(ctx context.Context, correlationID string) (*Booking, error)
	FindByExternalID(ctx context.Context, externalID string) (*Booking, error)
	// MemberBookingsOn returns active bookings owned by email on date whose
	// resource is of type t.
	MemberBookingsOn(ctx context.Context, email string, t resource.Type, date time.Time) ([]*Booking, error)
	DayReservations(ctx context.Context, date time.Time) ([]availability.Reservation, error)
	Counts(ctx context.Context, today time.Time) (Counts, error)
}

// Tx is the locked write side of the store.
type Tx interface {
	// LockSchedule serializes placement writes on (resourceID, date) until the
	// transaction ends.
	LockSchedule(ctx context.Context, resourceID string, date time.Time) error
	// GetForUpdate reads a booking and holds its row lock.
	GetForUpdate(ctx context.Context, id string) (*Booking, error)
	// Day reads closures, blocks and active bookings for date inside the transaction.
	Day(ctx context.Context, date time.Time) (availability.Day, error)
	Insert(ctx context.Context, b *Booking) error
	// Update writes b if its Version still matches and bumps the version.
	Update(ctx context.Context, b *Booking) error
}

// Counts feeds the staff summary.
type Counts struct {
	Pending             int `json:"pending"`
	AwaitingLinkage     int `json:"awaiting_linkage"`
	CancellationPending int `json:"cancellation_pending"`
	UnmatchedToday      int `json:"unmatched_today"`
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var activeStatuses = []string{
	string(StatusPending),
	string(StatusApproved),
	string(StatusConfirmed),
	string(StatusCancellationPending),
	string(StatusAttended),
	string(StatusNoShow),
}

var bookingColumns = []string{
	"b.id", "b.source", "b.external_booking_id", "b.correlation_id",
	"b.resource_id", "r.name", "r.type", "b.booking_date", "b.start_minute", "b.end_minute",
	"b.identity_kind", "b.owner_email", "b.owner_name", "b.tier",
	"b.imported_email", "b.imported_name", "b.imported_notes",
	"b.declared_player_count", "b.status",
	"b.total_owed_cents", "b.has_unpaid_fees", "b.fee_snapshot_paid",
	"b.notes", "b.staff_notes", "b.decline_reason", "b.cancellation_reason",
	"b.version", "b.created_at", "b.updated_at",
}

type pgxStore struct {
	pool *pgxpool.Pool
}

// NewPgxStore returns the Postgres-backed Store.
func NewPgxStore(pool *pgxpool.Pool) Store {
	return &pgxStore{pool: pool}
}

func (s *pgxStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&pgxTx{q: tx})
	})
}

func (s *pgxStore) Get(ctx context.Context, id string) (*Booking, error) {
	return getBooking(ctx, s.pool, squirrel.Eq{"b.id": id}, false)
}

func (s *pgxStore) FindByCorrelationID(ctx context.Context, correlationID string) (*Booking, error) {
	return getBooking(ctx, s.pool, squirrel.Eq{"b.correlation_id": correlationID}, false)
}

func (s *pgxStore) FindByExternalID(ctx context.Context, externalID string) (*Booking, error) {
	return getBooking(ctx, s.pool, squirrel.Eq{"b.external_booking_id": externalID}, false)
}

func (s *pgxStore) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := psql.Select(append(bookingColumns, "count(*) OVER() AS total_count")...).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id")

	if filter.Date != nil {
		query = query.Where(squirrel.Eq{"b.booking_date": *filter.Date})
	}
	if filter.ResourceID != "" {
		query = query.Where(squirrel.Eq{"b.resource_id": filter.ResourceID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.OwnerEmail != "" {
		query = query.Where(squirrel.Expr("lower(b.owner_email) = lower(?)", filter.OwnerEmail)).
			Where(squirrel.Eq{"b.identity_kind": IdentityMember})
	}
	if filter.Unmatched != nil {
		if *filter.Unmatched {
			query = query.Where(squirrel.Eq{"b.identity_kind": IdentityUnknownImport})
		} else {
			query = query.Where(squirrel.NotEq{"b.identity_kind": IdentityUnknownImport})
		}
	}

	orderDir := "ASC"
	if filter.SortOrder == "DESC" {
		orderDir = "DESC"
	}
	query = query.OrderBy("b.booking_date "+orderDir, "b.start_minute "+orderDir, "b.created_at ASC")

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate bookings failed: %w", err)
	}

	if err := loadRosters(ctx, s.pool, bookings); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *pgxStore) MemberBookingsOn(ctx context.Context, email string, t resource.Type, date time.Time) ([]*Booking, error) {
	sql, args, err := psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id").
		Where(squirrel.Eq{"b.identity_kind": IdentityMember}).
		Where(squirrel.Expr("lower(b.owner_email) = lower(?)", email)).
		Where(squirrel.Eq{"r.type": t, "b.booking_date": date, "b.status": activeStatuses}).
		OrderBy("b.start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build member bookings query failed: %w", err)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list member bookings failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member bookings failed: %w", err)
	}
	return out, nil
}

func (s *pgxStore) DayReservations(ctx context.Context, date time.Time) ([]availability.Reservation, error) {
	return dayReservations(ctx, s.pool, date)
}

func (s *pgxStore) Counts(ctx context.Context, today time.Time) (Counts, error) {
	const query = `
		SELECT
			count(*) FILTER (WHERE status = 'pending'),
			count(*) FILTER (WHERE status = 'approved' AND external_booking_id IS NULL),
			count(*) FILTER (WHERE status = 'cancellation_pending'),
			count(*) FILTER (WHERE identity_kind = 'unknown_import' AND booking_date = $1
				AND status NOT IN ('cancelled', 'declined'))
		FROM public.bookings
		WHERE booking_date >= $1 OR status IN ('pending', 'cancellation_pending')
	`
	var c Counts
	err := s.pool.QueryRow(ctx, query, today).
		Scan(&c.Pending, &c.AwaitingLinkage, &c.CancellationPending, &c.UnmatchedToday)
	if err != nil {
		return Counts{}, fmt.Errorf("count bookings failed: %w", err)
	}
	return c, nil
}

type pgxTx struct {
	q db.Querier
}

func (t *pgxTx) LockSchedule(ctx context.Context, resourceID string, date time.Time) error {
	key := resourceID + "|" + date.Format(time.DateOnly)
	if _, err := t.q.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", key); err != nil {
		return fmt.Errorf("lock schedule failed: %w", err)
	}
	return nil
}

func (t *pgxTx) GetForUpdate(ctx context.Context, id string) (*Booking, error) {
	return getBooking(ctx, t.q, squirrel.Eq{"b.id": id}, true)
}

func (t *pgxTx) Day(ctx context.Context, date time.Time) (availability.Day, error) {
	return availability.LoadDay(ctx, availability.NewPgxRepository(t.q), reservationReader{q: t.q}, date)
}

func (t *pgxTx) Insert(ctx context.Context, b *Booking) error {
	sql, args, err := psql.Insert("public.bookings").
		Columns(
			"id", "source", "external_booking_id", "correlation_id",
			"resource_id", "booking_date", "start_minute", "end_minute",
			"identity_kind", "owner_email", "owner_name", "tier",
			"imported_email", "imported_name", "imported_notes",
			"declared_player_count", "status",
			"total_owed_cents", "has_unpaid_fees", "fee_snapshot_paid",
			"notes", "staff_notes", "decline_reason", "cancellation_reason",
		).
		Values(
			b.ID, b.Source, b.ExternalBookingID, b.CorrelationID,
			b.ResourceID, b.Date, b.Interval.Start, b.Interval.End,
			b.Owner.Kind(), b.Owner.Email(), b.Owner.DisplayName(), b.Owner.Tier(),
			b.Imported.Email, b.Imported.Name, b.Imported.Notes,
			b.DeclaredPlayerCount, b.Status,
			b.TotalOwedCents, b.HasUnpaidFees, b.FeeSnapshotPaid,
			b.Notes, b.StaffNotes, b.DeclineReason, b.CancellationReason,
		).
		Suffix("RETURNING version, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert booking query failed: %w", err)
	}

	if err := t.q.QueryRow(ctx, sql, args...).Scan(&b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return writeRoster(ctx, t.q, b)
}

func (t *pgxTx) Update(ctx context.Context, b *Booking) error {
	sql, args, err := psql.Update("public.bookings").
		Set("external_booking_id", b.ExternalBookingID).
		Set("resource_id", b.ResourceID).
		Set("booking_date", b.Date).
		Set("start_minute", b.Interval.Start).
		Set("end_minute", b.Interval.End).
		Set("identity_kind", b.Owner.Kind()).
		Set("owner_email", b.Owner.Email()).
		Set("owner_name", b.Owner.DisplayName()).
		Set("tier", b.Owner.Tier()).
		Set("declared_player_count", b.DeclaredPlayerCount).
		Set("status", b.Status).
		Set("total_owed_cents", b.TotalOwedCents).
		Set("has_unpaid_fees", b.HasUnpaidFees).
		Set("fee_snapshot_paid", b.FeeSnapshotPaid).
		Set("notes", b.Notes).
		Set("staff_notes", b.StaffNotes).
		Set("decline_reason", b.DeclineReason).
		Set("cancellation_reason", b.CancellationReason).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": b.ID, "version": b.Version}).
		Suffix("RETURNING version, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	if err := t.q.QueryRow(ctx, sql, args...).Scan(&b.Version, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.StaleState(string(b.Status), b.Version)
		}
		if mapped := mapWriteError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	return writeRoster(ctx, t.q, b)
}

type reservationReader struct {
	q db.Querier
}

func (r reservationReader) DayReservations(ctx context.Context, date time.Time) ([]availability.Reservation, error) {
	return dayReservations(ctx, r.q, date)
}

func dayReservations(ctx context.Context, q db.Querier, date time.Time) ([]availability.Reservation, error) {
	sql, args, err := psql.Select("id", "resource_id", "start_minute", "end_minute", "status", "created_at").
		From("public.bookings").
		Where(squirrel.Eq{"booking_date": date, "status": activeStatuses}).
		OrderBy("start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build day reservations query failed: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list day reservations failed: %w", err)
	}
	defer rows.Close()

	var out []availability.Reservation
	for rows.Next() {
		var r availability.Reservation
		var status Status
		if err := rows.Scan(&r.ID, &r.ResourceID, &r.Interval.Start, &r.Interval.End, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation failed: %w", err)
		}
		r.Placed = status.Placed()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations failed: %w", err)
	}
	return out, nil
}

func getBooking(ctx context.Context, q db.Querier, where squirrel.Eq, forUpdate bool) (*Booking, error) {
	query := psql.Select(bookingColumns...).
		From("public.bookings b").
		Join("public.resources r ON b.resource_id = r.id").
		Where(where)
	if forUpdate {
		query = query.Suffix("FOR UPDATE OF b")
	}
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := loadRosters(ctx, q, []*Booking{b}); err != nil {
		return nil, err
	}
	return b, nil
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var (
		b     Booking
		kind  IdentityKind
		email string
		name  string
		tier  string
	)
	dest := []any{
		&b.ID, &b.Source, &b.ExternalBookingID, &b.CorrelationID,
		&b.ResourceID, &b.ResourceName, &b.ResourceType, &b.Date, &b.Interval.Start, &b.Interval.End,
		&kind, &email, &name, &tier,
		&b.Imported.Email, &b.Imported.Name, &b.Imported.Notes,
		&b.DeclaredPlayerCount, &b.Status,
		&b.TotalOwedCents, &b.HasUnpaidFees, &b.FeeSnapshotPaid,
		&b.Notes, &b.StaffNotes, &b.DeclineReason, &b.CancellationReason,
		&b.Version, &b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan booking failed: %w", err)
	}
	b.Owner = restoreIdentity(kind, email, name, tier, b.Imported)
	return &b, nil
}

func loadRosters(ctx context.Context, q db.Querier, bookings []*Booking) error {
	if len(bookings) == 0 {
		return nil
	}
	ids := make([]string, len(bookings))
	byID := make(map[string]*Booking, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
		byID[b.ID] = b
	}

	sql, args, err := psql.Select("booking_id", "seat", "role", "email", "name", "tier").
		From("public.booking_participants").
		Where(squirrel.Eq{"booking_id": ids}).
		OrderBy("booking_id", "seat ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("build roster query failed: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("list roster failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID string
		var p Participant
		if err := rows.Scan(&bookingID, &p.Seat, &p.Role, &p.Email, &p.Name, &p.Tier); err != nil {
			return fmt.Errorf("scan participant failed: %w", err)
		}
		if b, ok := byID[bookingID]; ok {
			b.Roster = append(b.Roster, p)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate roster failed: %w", err)
	}
	return nil
}

func writeRoster(ctx context.Context, q db.Querier, b *Booking) error {
	if _, err := q.Exec(ctx, "DELETE FROM public.booking_participants WHERE booking_id = $1", b.ID); err != nil {
		return fmt.Errorf("clear roster failed: %w", err)
	}
	if len(b.Roster) == 0 {
		return nil
	}

	insert := psql.Insert("public.booking_participants").
		Columns("booking_id", "seat", "role", "email", "name", "tier")
	for _, p := range b.Roster {
		insert = insert.Values(b.ID, p.Seat, p.Role, strings.ToLower(p.Email), p.Name, p.Tier)
	}
	sql, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build roster insert failed: %w", err)
	}
	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("write roster failed: %w", err)
	}
	return nil
}

// mapWriteError translates constraint violations into domain errors.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch pgErr.Code {
	case pgerrcode.ExclusionViolation:
		return apperror.PlacementConflict("booking", "")
	case pgerrcode.UniqueViolation:
		switch pgErr.ConstraintName {
		case "bookings_external_booking_id_key":
			return ErrExternalIDTaken
		case "bookings_correlation_id_key":
			return ErrDuplicateCorrelation
		}
	}
	return nil
}
