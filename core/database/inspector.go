package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo matches the output of SHOW COLUMNS.
type ColumnInfo struct {
	Field   string
	Type    string
	Null    string
	Key     string
	Default *string
	Extra   string
}

// GetTableColumns retrieves the column definitions for a given table.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo

	switch db.Dialector.Name() {
	case "sqlite":
		type SQLiteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string
			Pk         int
		}
		var sqliteCols []SQLiteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.Name),
				Type:  strings.ToLower(col.Type),
			})
		}
		return columns, nil

	case "postgres":
		type pgColumn struct {
			ColumnName string
			DataType   string
			IsNullable string
		}
		var pgCols []pgColumn
		err := db.Raw("SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position", tableName).
			Scan(&pgCols).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range pgCols {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.ColumnName),
				Type:  strings.ToLower(col.DataType),
				Null:  col.IsNullable,
			})
		}
		return columns, nil
	}

	err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
	}
	for i := range columns {
		columns[i].Type = strings.ToLower(columns[i].Type)
		columns[i].Field = strings.ToLower(columns[i].Field)
	}
	return columns, nil
}
