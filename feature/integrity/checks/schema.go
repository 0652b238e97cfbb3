package checks

import (
	"fmt"
	"reflect"
	"strings"

	"classroom-sync/core/database"
	"classroom-sync/feature/classroom/models"

	"gorm.io/gorm"
)

// SchemaReport strictly types the result of a schema integrity check.
type SchemaReport struct {
	Dialect string                 `json:"dialect"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "error"
}

// typeAliases lists how each dialect spells a declared column type.
var typeAliases = map[string][]string{
	"varchar": {"varchar", "character varying", "text"},
	"text":    {"text", "longtext", "mediumtext"},
}

// CheckSchema verifies the database schema using the classroom models as the source of truth.
func CheckSchema(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Dialect: db.Dialector.Name(),
		Tables:  make(map[string]TableReport),
		Matched: true,
		Errors:  []string{},
	}

	for _, model := range models.All() {
		val := reflect.TypeOf(model)
		if val.Kind() == reflect.Pointer {
			val = val.Elem()
		}

		tabler, ok := reflect.New(val).Interface().(interface{ TableName() string })
		if !ok {
			return nil, fmt.Errorf("model %s does not implement TableName", val.Name())
		}
		tableName := tabler.TableName()

		actualCols, err := database.GetTableColumns(db, tableName)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", tableName, err))
			report.Matched = false
			continue
		}
		if len(actualCols) == 0 {
			report.Errors = append(report.Errors, fmt.Sprintf("Table %s does not exist", tableName))
			report.Matched = false
			continue
		}

		report.Tables[tableName] = checkTable(val, actualCols)
		if report.Tables[tableName].Status != "ok" {
			report.Matched = false
		}
	}

	return report, nil
}

func checkTable(model reflect.Type, actualCols []database.ColumnInfo) TableReport {
	tblReport := TableReport{
		MissingColumns: []string{},
		TypeMismatches: []string{},
		Status:         "ok",
	}

	actualMap := make(map[string]database.ColumnInfo)
	for _, col := range actualCols {
		actualMap[col.Field] = col
	}

	for i := 0; i < model.NumField(); i++ {
		gormTag := model.Field(i).Tag.Get("gorm")

		colName := parseGormColumn(gormTag)
		if colName == "" {
			continue
		}

		actCol, exists := actualMap[colName]
		if !exists {
			tblReport.MissingColumns = append(tblReport.MissingColumns, colName)
			tblReport.Status = "error"
			continue
		}

		expType := strings.ToLower(parseGormType(gormTag))
		if expType == "" {
			continue
		}
		if !typeMatches(expType, actCol.Type) {
			mismatch := fmt.Sprintf("%s: expected %s, got %s", colName, expType, actCol.Type)
			tblReport.TypeMismatches = append(tblReport.TypeMismatches, mismatch)
			tblReport.Status = "error"
		}
	}

	return tblReport
}

// typeMatches compares type families; lengths are not enforced.
func typeMatches(expected, actual string) bool {
	family := expected
	if i := strings.IndexByte(family, '('); i >= 0 {
		family = family[:i]
	}
	aliases, ok := typeAliases[family]
	if !ok {
		return strings.Contains(actual, family)
	}
	for _, alias := range aliases {
		if strings.Contains(actual, alias) {
			return true
		}
	}
	return false
}

// Helpers to parse simple GORM tags
func parseGormColumn(tag string) string {
	parts := strings.Split(tag, ";")
	for _, p := range parts {
		if strings.HasPrefix(p, "column:") {
			return strings.TrimPrefix(p, "column:")
		}
	}
	return ""
}

func parseGormType(tag string) string {
	parts := strings.Split(tag, ";")
	for _, p := range parts {
		if strings.HasPrefix(p, "type:") {
			return strings.TrimPrefix(p, "type:")
		}
	}
	return ""
}
