package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"lodge/infras/otel"
	"lodge/infras/postgres"
	bookingModel "lodge/internal/domains/booking/model"
	"lodge/internal/domains/room/model"
	"lodge/shared/constant"
	gDto "lodge/shared/dto"
	"lodge/shared/logger"
	gRepo "lodge/shared/repository"
)

// FreeRoomsLimitCap bounds availability queries regardless of what the
// caller asks for.
const FreeRoomsLimitCap = 50

// FreeQuery narrows the free-room search. Zero values mean "no filter";
// CheckIn/CheckOut are always required.
type FreeQuery struct {
	RoomTypeID    string
	CheckIn       time.Time
	CheckOut      time.Time
	Capacity      int
	ExcludeRoomID string
	Limit         int
}

type Room interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Room, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Room, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	FindFree(ctx context.Context, query FreeQuery) ([]model.FreeRoom, error)
	FindFreeTx(ctx context.Context, sqltx *sqlx.Tx, query FreeQuery) ([]model.FreeRoom, error)
	RefreshStatusProjection(ctx context.Context, today time.Time) error
}

type repositoryImpl struct {
	gRepo.Repository[model.Room]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Room {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Room](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func buildFreeRoomsQuery(query FreeQuery, forUpdate bool) (string, map[string]any) {
	limit := query.Limit
	if limit <= 0 || limit > FreeRoomsLimitCap {
		limit = FreeRoomsLimitCap
	}

	args := map[string]any{
		"check_in":  query.CheckIn.Format(constant.StayDateFormat),
		"check_out": query.CheckOut.Format(constant.StayDateFormat),
		"limit":     limit,
	}

	conditions := []string{
		"r.status <> '" + model.StatusMaintenance + "'",
		`NOT EXISTS (
			SELECT 1
			  FROM bookings b
			 WHERE b.room_id = r.id
			   AND b.status IN ('` + strings.Join(bookingModel.BlockingStatuses, "', '") + `')
			   AND daterange(b.check_in_date, b.check_out_date, '[)')
			       && daterange(:check_in ::date, :check_out ::date, '[)')
		)`,
	}

	if query.RoomTypeID != "" {
		args["room_type_id"] = query.RoomTypeID

		conditions = append(conditions, "r.room_type_id = :room_type_id")
	}

	if query.Capacity > 0 {
		args["capacity"] = query.Capacity

		conditions = append(conditions, "rt.capacity >= :capacity")
	}

	if query.ExcludeRoomID != "" {
		args["exclude_room_id"] = query.ExcludeRoomID

		conditions = append(conditions, "r.id <> :exclude_room_id")
	}

	suffix := ""
	if forUpdate {
		suffix = " FOR UPDATE OF r"
	}

	sql := fmt.Sprintf(`SELECT r.id, r.room_number, r.room_type_id,
		rt.name AS type_name, rt.capacity, rt.base_rate
		FROM rooms r
		JOIN room_types rt ON rt.id = r.room_type_id
		WHERE %s
		ORDER BY r.room_number
		LIMIT :limit%s`, strings.Join(conditions, " AND "), suffix)

	return sql, args
}

type namedPreparer interface {
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

func (repo *repositoryImpl) findFree(ctx context.Context, preparer namedPreparer, query FreeQuery, forUpdate bool) ([]model.FreeRoom, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.findFree")
	defer scope.End()

	sql, args := buildFreeRoomsQuery(query, forUpdate)
	scope.SetAttribute(constant.OtelQueryAttributeKey, sql)

	prepare, err := preparer.PrepareNamedContext(ctx, sql)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to prepare statement (free rooms): %w", err)
	}
	defer prepare.Close()

	var rooms []model.FreeRoom

	err = prepare.SelectContext(ctx, &rooms, args)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to find free rooms: %w", err)
	}

	return rooms, nil
}

// FindFree returns rooms of the given type with no blocking commitment
// overlapping the stay, ordered by room number.
func (repo *repositoryImpl) FindFree(ctx context.Context, query FreeQuery) ([]model.FreeRoom, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.FindFree")
	defer scope.End()

	return repo.findFree(ctx, repo.db.Read, query, false)
}

// FindFreeTx re-runs the free-room search inside a transaction and locks the
// candidate room rows, so a group allocation can re-validate availability at
// the atomicity boundary.
func (repo *repositoryImpl) FindFreeTx(ctx context.Context, sqltx *sqlx.Tx, query FreeQuery) ([]model.FreeRoom, error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.FindFreeTx")
	defer scope.End()

	return repo.findFree(ctx, sqltx, query, true)
}

// RefreshStatusProjection recomputes each room's coarse status from the
// commitments covering today. Maintenance rooms are left alone.
func (repo *repositoryImpl) RefreshStatusProjection(ctx context.Context, today time.Time) (err error) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".room.RefreshStatusProjection")
	defer scope.End()
	defer scope.TraceIfError(err)

	day := today.Format(constant.StayDateFormat)

	statements := []struct {
		status string
		query  string
	}{
		{
			status: model.StatusOccupied,
			query: `UPDATE rooms SET status = $1, modified_at = NOW(), modified_by = $3
				WHERE status <> '` + model.StatusMaintenance + `'
				  AND id IN (
					SELECT b.room_id FROM bookings b
					 WHERE b.status = '` + bookingModel.StatusActive + `'
					   AND daterange(b.check_in_date, b.check_out_date, '[)') @> $2::date
				)`,
		},
		{
			status: model.StatusReserved,
			query: `UPDATE rooms SET status = $1, modified_at = NOW(), modified_by = $3
				WHERE status NOT IN ('` + model.StatusMaintenance + `', '` + model.StatusOccupied + `')
				  AND id IN (
					SELECT b.room_id FROM bookings b
					 WHERE b.status IN ('` + bookingModel.StatusHeld + `', '` + bookingModel.StatusConfirmed + `')
					   AND daterange(b.check_in_date, b.check_out_date, '[)') @> $2::date
				)
				  AND id NOT IN (
					SELECT b.room_id FROM bookings b
					 WHERE b.status = '` + bookingModel.StatusActive + `'
					   AND daterange(b.check_in_date, b.check_out_date, '[)') @> $2::date
				)`,
		},
		{
			status: model.StatusAvailable,
			query: `UPDATE rooms SET status = $1, modified_at = NOW(), modified_by = $3
				WHERE status <> '` + model.StatusMaintenance + `'
				  AND id NOT IN (
					SELECT b.room_id FROM bookings b
					 WHERE b.status IN ('` + strings.Join(bookingModel.BlockingStatuses, "', '") + `')
					   AND daterange(b.check_in_date, b.check_out_date, '[)') @> $2::date
				)`,
		},
	}

	tx, err := repo.db.Write.BeginTxx(ctx, nil)
	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to begin status projection tx: %w", err)
	}

	for _, statement := range statements {
		if _, err = tx.ExecContext(ctx, statement.query, statement.status, day, "reconciler"); err != nil {
			logger.ErrorWithStack(err)
			scope.TraceError(err)

			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				logger.ErrorWithStack(rollbackErr)
			}

			return fmt.Errorf("failed to refresh room status projection: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return fmt.Errorf("failed to commit status projection: %w", err)
	}

	return nil
}
