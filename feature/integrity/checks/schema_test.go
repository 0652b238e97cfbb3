package checks

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"classroom-sync/core/database"
	"classroom-sync/feature/classroom/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{
		Driver: database.DriverSQLite,
		Name:   fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	})
	require.NoError(t, err)
	return db
}

func TestCheckSchema_NilDB(t *testing.T) {
	report, err := CheckSchema(nil)
	assert.Error(t, err)
	assert.Nil(t, report)
}

func TestCheckSchema_Migrated(t *testing.T) {
	db := setupSQLite(t)
	require.NoError(t, db.AutoMigrate(models.All()...))

	report, err := CheckSchema(db)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", report.Dialect)
	assert.True(t, report.Matched, "errors: %v, tables: %v", report.Errors, report.Tables)
	assert.Len(t, report.Tables, len(models.All()))
}

func TestCheckSchema_MissingTable(t *testing.T) {
	db := setupSQLite(t)
	require.NoError(t, db.AutoMigrate(&models.Teacher{}, &models.Classroom{}))

	report, err := CheckSchema(db)
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.Contains(t, report.Errors, "Table grades does not exist")
	assert.Equal(t, "ok", report.Tables["teachers"].Status)
}

func TestCheckSchema_MissingColumn(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	rows.AddRow("id", "varchar(36)", "NO", "PRI", nil, "")
	rows.AddRow("email", "varchar(191)", "NO", "UNI", nil, "")

	mock.ExpectQuery("SHOW COLUMNS FROM `teachers`").WillReturnRows(rows)

	report, err := CheckSchema(db)
	assert.NoError(t, err)
	assert.False(t, report.Matched)

	tbl, ok := report.Tables["teachers"]
	assert.True(t, ok)
	assert.Equal(t, "error", tbl.Status)
	assert.Contains(t, tbl.MissingColumns, "display_name")
	assert.NotContains(t, tbl.MissingColumns, "email")

	// The remaining tables had no expectation and are reported as errors.
	assert.Len(t, report.Errors, len(models.All())-1)
}

func TestCheckSchema_TypeMismatch(t *testing.T) {
	db, mock := setupMockDB(t)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"})
	rows.AddRow("id", "int(11)", "NO", "PRI", nil, "auto_increment")
	rows.AddRow("email", "varchar(255)", "NO", "UNI", nil, "")

	mock.ExpectQuery("SHOW COLUMNS FROM `teachers`").WillReturnRows(rows)

	report, err := CheckSchema(db)
	assert.NoError(t, err)

	tbl := report.Tables["teachers"]
	foundMismatch := false
	for _, m := range tbl.TypeMismatches {
		if regexp.MustCompile(`id: expected varchar\(36\), got int\(11\)`).MatchString(m) {
			foundMismatch = true
		}
		assert.NotContains(t, m, "email", "lengths are not enforced")
	}
	assert.True(t, foundMismatch, "Should detect type mismatch for id. Got: %v", tbl.TypeMismatches)
}

func TestTypeMatches(t *testing.T) {
	assert.True(t, typeMatches("varchar(36)", "character varying"))
	assert.True(t, typeMatches("varchar(16)", "varchar(32)"))
	assert.True(t, typeMatches("text", "longtext"))
	assert.False(t, typeMatches("text", "int"))
	assert.True(t, typeMatches("bigint", "bigint unsigned"))
}

func TestParseGormTags(t *testing.T) {
	col := parseGormColumn("column:id;primaryKey")
	assert.Equal(t, "id", col)

	col2 := parseGormColumn("primaryKey;column:external_id;type:varchar(191)")
	assert.Equal(t, "external_id", col2)

	typ := parseGormType("column:id;type:varchar(36)")
	assert.Equal(t, "varchar(36)", typ)

	typ2 := parseGormType("column:id")
	assert.Equal(t, "", typ2)
}
