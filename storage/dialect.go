package storage

import (
	"fmt"
	"strings"
)

// dialect hides the placeholder, quoting and DDL differences between the
// supported SQL databases.
type dialect struct {
	name        string
	placeholder func(n int) string
	quote       func(ident string) string
	ddl         []string
}

var postgresDialect = dialect{
	name:        "postgres",
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	quote:       func(ident string) string { return `"` + ident + `"` },
	ddl: []string{`
		CREATE TABLE IF NOT EXISTS poi_billboards (
			id              BIGSERIAL PRIMARY KEY,
			poi             TEXT             NOT NULL,
			name            TEXT             NULL,
			number_review   INTEGER          NOT NULL DEFAULT 0,
			number_rating   DOUBLE PRECISION NOT NULL DEFAULT 0,
			"latBillboard"  DOUBLE PRECISION NOT NULL,
			"lonBillboard"  DOUBLE PRECISION NOT NULL,
			"idBillboard"   BIGINT           NOT NULL,
			avg_score       DOUBLE PRECISION NOT NULL
		)`, `
		CREATE INDEX IF NOT EXISTS idx_poi_billboards_id ON poi_billboards("idBillboard")`, `
		CREATE TABLE IF NOT EXISTS poi_billboard_failures (
			id            BIGSERIAL PRIMARY KEY,
			run_id        VARCHAR(64)  NOT NULL,
			id_billboard  BIGINT       NOT NULL,
			stage         VARCHAR(32)  NOT NULL,
			error         TEXT         NOT NULL,
			failed_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
	},
}

var mysqlDialect = dialect{
	name:        "mysql",
	placeholder: func(int) string { return "?" },
	quote:       func(ident string) string { return "`" + ident + "`" },
	ddl: []string{`
		CREATE TABLE IF NOT EXISTS poi_billboards (
			id             BIGINT AUTO_INCREMENT PRIMARY KEY,
			poi            VARCHAR(64)  NOT NULL,
			name           TEXT         NULL,
			number_review  INT          NOT NULL DEFAULT 0,
			number_rating  DOUBLE       NOT NULL DEFAULT 0,
			latBillboard   DOUBLE       NOT NULL,
			lonBillboard   DOUBLE       NOT NULL,
			idBillboard    BIGINT       NOT NULL,
			avg_score      DOUBLE       NOT NULL,
			KEY idx_poi_billboards_id (idBillboard)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, `
		CREATE TABLE IF NOT EXISTS poi_billboard_failures (
			id            BIGINT AUTO_INCREMENT PRIMARY KEY,
			run_id        VARCHAR(64)  NOT NULL,
			id_billboard  BIGINT       NOT NULL,
			stage         VARCHAR(32)  NOT NULL,
			error         TEXT         NOT NULL,
			failed_at     TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

func dialectFor(driver string) (dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres":
		return postgresDialect, nil
	case "mysql":
		return mysqlDialect, nil
	default:
		return dialect{}, fmt.Errorf("storage: unsupported driver %q", driver)
	}
}

// values renders rows×cols placeholders as "(..),(..)".
func (d dialect) values(rows, cols int) string {
	groups := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		ph := make([]string, cols)
		for c := 0; c < cols; c++ {
			ph[c] = d.placeholder(r*cols + c + 1)
		}
		groups = append(groups, "("+strings.Join(ph, ",")+")")
	}
	return strings.Join(groups, ",")
}

// columns quotes and joins column names.
func (d dialect) columns(names ...string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.quote(n)
	}
	return strings.Join(quoted, ", ")
}
