package testhelpers

import (
	"fmt"
	"strings"

	"valuegrade/internal/models"

	g "github.com/onsi/gomega"
	"gorm.io/gorm"
)

// CleanupDB empties the application tables and resets their id sequences.
func CleanupDB(db *gorm.DB) {
	var tables []string
	for _, model := range []interface{}{&models.Analysis{}, &models.RawReport{}, &models.Company{}} {
		stmt := &gorm.Statement{DB: db}
		g.Expect(stmt.Parse(model)).To(g.Succeed())
		tables = append(tables, fmt.Sprintf("%q", stmt.Schema.Table))
	}

	err := db.Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE").Error
	g.Expect(err).NotTo(g.HaveOccurred(), "failed to truncate "+strings.Join(tables, ", "))
}
