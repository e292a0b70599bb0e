package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lodge/infras/otel"
	"lodge/infras/postgres"
	"lodge/internal/domains/booking/model"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/logger"
	gRepo "lodge/shared/repository"
)

// selectColumns matches the db-tagged fields of model.Booking.
const selectColumns = `id, room_id, guest_name, guest_email, guest_phone, channel,
	check_in_date, check_out_date, status, group_id, group_name,
	rate_total, deposit, created_by, modified_by`

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	InsertTx(ctx context.Context, sqltx *sqlx.Tx, model model.Booking) error
	InsertBulkTx(ctx context.Context, sqltx *sqlx.Tx, models []model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	FindConflicts(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) ([]model.Booking, error)
	FindConflictsTx(ctx context.Context, sqltx *sqlx.Tx, roomID string, checkIn, checkOut time.Time, excludeID string) ([]model.Booking, error)
	Timeline(ctx context.Context, roomID string, from, to time.Time) ([]model.Booking, error)
	ReleaseStaleHolds(ctx context.Context, cutoff time.Time) (int64, error)
	BeginTx(ctx context.Context) (*sqlx.Tx, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// IsIntegrityConflict reports whether an insert lost the race against the
// storage exclusion constraint: the pre-check passed but an overlapping
// blocking commitment landed first.
func IsIntegrityConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == constant.PqErrorCodeExclusionViolation
	}

	return false
}

func (repo *repositoryImpl) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)

		return nil, fmt.Errorf("failed to begin booking tx: %w", err)
	}

	return tx, nil
}

type namedPreparer interface {
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

func (repo *repositoryImpl) findConflicts(ctx context.Context, preparer namedPreparer, roomID string, checkIn, checkOut time.Time, excludeID string, forUpdate bool) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.findConflicts")
	defer scope.End()

	args := map[string]any{
		"room_id":   roomID,
		"check_in":  checkIn.Format(constant.StayDateFormat),
		"check_out": checkOut.Format(constant.StayDateFormat),
	}

	conditions := []string{
		"room_id = :room_id",
		"status IN ('" + strings.Join(model.BlockingStatuses, "', '") + "')",
		"daterange(check_in_date, check_out_date, '[)') && daterange(:check_in ::date, :check_out ::date, '[)')",
	}

	if excludeID != "" {
		args["exclude_id"] = excludeID

		conditions = append(conditions, "id <> :exclude_id")
	}

	suffix := ""
	if forUpdate {
		suffix = " FOR UPDATE"
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY check_in_date%s",
		selectColumns, model.TableName, strings.Join(conditions, " AND "), suffix)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	prepare, err := preparer.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to prepare statement (conflicts): %w", err)
	}
	defer prepare.Close()

	var conflicts []model.Booking

	err = prepare.SelectContext(ctx, &conflicts, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to find conflicting bookings: %w", err)
	}

	return conflicts, nil
}

// FindConflicts returns the blocking commitments overlapping the requested
// half-open stay on one room. excludeID lets a modification re-validate an
// existing reservation against everything but itself.
func (repo *repositoryImpl) FindConflicts(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindConflicts")
	defer scope.End()

	return repo.findConflicts(ctx, repo.db.Read, roomID, checkIn, checkOut, excludeID, false)
}

// FindConflictsTx re-checks conflicts inside the booking transaction with
// the rows locked, closing the check-then-act window before the insert.
func (repo *repositoryImpl) FindConflictsTx(ctx context.Context, sqltx *sqlx.Tx, roomID string, checkIn, checkOut time.Time, excludeID string) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.FindConflictsTx")
	defer scope.End()

	return repo.findConflicts(ctx, sqltx, roomID, checkIn, checkOut, excludeID, true)
}

// Timeline returns every commitment, blocking or not, that touches the
// window on one room, ordered by check-in.
func (repo *repositoryImpl) Timeline(ctx context.Context, roomID string, from, to time.Time) ([]model.Booking, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.Timeline")
	defer scope.End()

	query := fmt.Sprintf(`SELECT %s FROM %s
		WHERE room_id = :room_id
		  AND daterange(check_in_date, check_out_date, '[)') && daterange(:from ::date, :to ::date, '[)')
		ORDER BY check_in_date`, selectColumns, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	args := map[string]any{
		"room_id": roomID,
		"from":    from.Format(constant.StayDateFormat),
		"to":      to.Format(constant.StayDateFormat),
	}

	prepare, err := repo.db.Read.PrepareNamedContext(ctx, query)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to prepare statement (timeline): %w", err)
	}
	defer prepare.Close()

	var bookings []model.Booking

	err = prepare.SelectContext(ctx, &bookings, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to get room timeline: %w", err)
	}

	return bookings, nil
}

// ReleaseStaleHolds releases every Held commitment created before the
// cutoff, freeing the inventory it was blocking.
func (repo *repositoryImpl) ReleaseStaleHolds(ctx context.Context, cutoff time.Time) (released int64, err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.ReleaseStaleHolds")
	defer scope.End()
	defer scope.TraceIfError(err)

	query := fmt.Sprintf(`UPDATE %s SET status = $1, modified_at = NOW(), modified_by = $2
		WHERE status = $3 AND created_at < $4`, model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	result, err := repo.db.Write.ExecContext(ctx, query, model.StatusReleased, "reconciler", model.StatusHeld, cutoff)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return 0, fmt.Errorf("failed to release stale holds: %w", err)
	}

	released, err = result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count released holds: %w", err)
	}

	return released, nil
}
