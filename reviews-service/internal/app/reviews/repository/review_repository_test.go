package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"opaque/reviews-service/internal/app/reviews/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var reviewColumns = []string{"id", "name", "country", "content", "rating", "created_at"}

// ReviewRepositoryTestSuite тестовый suite для PostgreSQL repository
type ReviewRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  ReviewRepository
	sqlDB *sql.DB
}

func TestReviewRepositorySuite(t *testing.T) {
	suite.Run(t, new(ReviewRepositoryTestSuite))
}

func (s *ReviewRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewReviewRepository(s.db)
}

func (s *ReviewRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

// ===================== Create Tests =====================

func (s *ReviewRepositoryTestSuite) TestCreate_Success() {
	review := &entity.Review{Name: "Anna", Country: "Norway", Content: "Loved it", Rating: 5}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "reviews"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.Create(context.Background(), review)

	s.NoError(err)
	s.NotEqual(uuid.Nil, review.ID)
	s.False(review.CreatedAt.IsZero())
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestCreate_DBError() {
	review := &entity.Review{Name: "Anna", Country: "Norway", Content: "Loved it", Rating: 5}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "reviews"`)).
		WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	err := s.repo.Create(context.Background(), review)

	s.Error(err)
	s.Contains(err.Error(), "failed to create review")
	s.NoError(s.mock.ExpectationsWereMet())
}

// microsecondTime совпадает со временем без долей микросекунды
type microsecondTime struct{}

func (microsecondTime) Match(v driver.Value) bool {
	t, ok := v.(time.Time)
	return ok && !t.IsZero() && t.Equal(t.Truncate(time.Microsecond))
}

func (s *ReviewRepositoryTestSuite) TestCreate_StoresCreatedAtInMicroseconds() {
	review := &entity.Review{Name: "Anna", Country: "Norway", Content: "Loved it", Rating: 5}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "reviews"`)).
		WithArgs(sqlmock.AnyArg(), "Anna", "Norway", "Loved it", 5, microsecondTime{}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.Create(context.Background(), review)

	s.NoError(err)
	s.Zero(review.CreatedAt.Nanosecond() % int(time.Microsecond))
	s.Equal(time.UTC, review.CreatedAt.Location())
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== GetByID Tests =====================

func (s *ReviewRepositoryTestSuite) TestGetByID_Success() {
	id := uuid.New()
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(reviewColumns).
		AddRow(id.String(), "Anna", "Norway", "Loved it", 5, createdAt)

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE id = $1`)).
		WillReturnRows(rows)

	review, err := s.repo.GetByID(context.Background(), id)

	s.NoError(err)
	s.Require().NotNil(review)
	s.Equal(id, review.ID)
	s.Equal("Anna", review.Name)
	s.Equal("Norway", review.Country)
	s.Equal(5, review.Rating)
	s.True(createdAt.Equal(review.CreatedAt))
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestGetByID_NotFound() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(reviewColumns))

	review, err := s.repo.GetByID(context.Background(), uuid.New())

	s.ErrorIs(err, ErrReviewNotFound)
	s.Nil(review)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestGetByID_DBError() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reviews" WHERE id = $1`)).
		WillReturnError(sql.ErrConnDone)

	review, err := s.repo.GetByID(context.Background(), uuid.New())

	s.Error(err)
	s.NotErrorIs(err, ErrReviewNotFound)
	s.Nil(review)
	s.Contains(err.Error(), "failed to get review")
}

// ===================== Update Tests =====================

func (s *ReviewRepositoryTestSuite) TestUpdate_Success() {
	review := &entity.Review{ID: uuid.New(), Name: "Anna", Country: "Chile", Content: "Still great", Rating: 4}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reviews" SET "content"=$1,"country"=$2,"name"=$3,"rating"=$4 WHERE id = $5`)).
		WithArgs("Still great", "Chile", "Anna", 4, review.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.Update(context.Background(), review)

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestUpdate_NotFound() {
	review := &entity.Review{ID: uuid.New(), Name: "Anna", Country: "Chile", Content: "x", Rating: 4}

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`UPDATE "reviews"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.repo.Update(context.Background(), review)

	s.ErrorIs(err, ErrReviewNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Delete Tests =====================

func (s *ReviewRepositoryTestSuite) TestDelete_Success() {
	id := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "reviews" WHERE id = $1`)).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	s.NoError(s.repo.Delete(context.Background(), id))
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestDelete_NotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "reviews" WHERE id = $1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.repo.Delete(context.Background(), uuid.New())

	s.ErrorIs(err, ErrReviewNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== List Tests =====================

func (s *ReviewRepositoryTestSuite) TestList_SearchAndRating() {
	rating := 5
	filter := entity.ReviewFilter{
		Terms:    []string{"gre_at"},
		Rating:   &rating,
		Ordering: entity.Ordering{Field: "rating"},
		Limit:    10,
	}
	pattern := `%gre\_at%`

	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT count(*) FROM "reviews" WHERE (name ILIKE $1 OR country ILIKE $2 OR content ILIKE $3) AND rating = $4`)).
		WithArgs(pattern, pattern, pattern, 5).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "reviews" WHERE (name ILIKE $1 OR country ILIKE $2 OR content ILIKE $3) AND rating = $4 ORDER BY rating ASC, id ASC`)).
		WillReturnRows(sqlmock.NewRows(reviewColumns).
			AddRow(uuid.NewString(), "Bo", "Sweden", "gre_at read", 5, time.Now()))

	reviews, total, err := s.repo.List(context.Background(), filter)

	s.NoError(err)
	s.Equal(int64(1), total)
	s.Len(reviews, 1)
	s.Equal("Bo", reviews[0].Name)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestList_DateRange() {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	until := since.AddDate(0, 1, 0)
	filter := entity.ReviewFilter{Since: &since, Until: &until, Ordering: entity.DefaultOrdering}

	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT count(*) FROM "reviews" WHERE created_at >= $1 AND created_at < $2`)).
		WithArgs(since, until).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	s.mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT * FROM "reviews" WHERE created_at >= $1 AND created_at < $2 ORDER BY created_at DESC, id DESC`)).
		WillReturnRows(sqlmock.NewRows(reviewColumns).
			AddRow(uuid.NewString(), "A", "X", "c", 3, since.Add(48*time.Hour)).
			AddRow(uuid.NewString(), "B", "Y", "d", 4, since.Add(24*time.Hour)))

	reviews, total, err := s.repo.List(context.Background(), filter)

	s.NoError(err)
	s.Equal(int64(2), total)
	s.Len(reviews, 2)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestList_EmptySkipsSelect() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "reviews"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	reviews, total, err := s.repo.List(context.Background(), entity.ReviewFilter{})

	s.NoError(err)
	s.Equal(int64(0), total)
	s.NotNil(reviews)
	s.Empty(reviews)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestList_CountError() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "reviews"`)).
		WillReturnError(sql.ErrConnDone)

	_, _, err := s.repo.List(context.Background(), entity.ReviewFilter{})

	s.Error(err)
	s.Contains(err.Error(), "failed to count reviews")
}

// ===================== Aggregates Tests =====================

func (s *ReviewRepositoryTestSuite) TestRatingCounts() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT rating, COUNT(*) AS count FROM "reviews" GROUP BY`)).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "count"}).
			AddRow(5, 7).
			AddRow(1, 2))

	counts, err := s.repo.RatingCounts(context.Background())

	s.NoError(err)
	s.Equal(map[int]int64{5: 7, 1: 2}, counts)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *ReviewRepositoryTestSuite) TestDistinctRatings() {
	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT DISTINCT "rating" FROM "reviews"`)).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(2).AddRow(5))

	ratings, err := s.repo.DistinctRatings(context.Background())

	s.NoError(err)
	s.Equal([]int{2, 5}, ratings)
	s.NoError(s.mock.ExpectationsWereMet())
}

func TestOrderClause(t *testing.T) {
	require.Equal(t, "created_at DESC, id DESC", orderClause(entity.DefaultOrdering))
	require.Equal(t, "name ASC, id ASC", orderClause(entity.Ordering{Field: "name"}))
	require.Equal(t, "created_at DESC, id DESC", orderClause(entity.Ordering{}))
}

func (s *ReviewRepositoryTestSuite) TestList_InvalidOrdering() {
	_, _, err := s.repo.List(context.Background(), entity.ReviewFilter{
		Ordering: entity.Ordering{Field: "content"},
	})

	s.ErrorIs(err, ErrInvalidOrdering)
	s.NoError(s.mock.ExpectationsWereMet())
}
