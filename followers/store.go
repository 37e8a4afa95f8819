package followers

import (
	"context"
	"fmt"

	"github.com/lukehollenback/birdcall/util/cliutil"

	"gorm.io/plugin/opentelemetry/tracing"
)

// Durable set of follower records. Save replaces the full contents of the store.
//
// Stores assume a single writer.
type Store interface {
	Load(ctx context.Context) ([]*Record, error)
	Save(ctx context.Context, records []*Record) error
}

// Opens the store for an output argument: a database URL (see cliutil.SetupDatabase) selects the
// SQL store, anything else is treated as a CSV file path.
func OpenStore(output string) (Store, error) {
	if !cliutil.IsDatabaseURL(output) {
		return &CSVStore{Path: output}, nil
	}
	db, err := cliutil.SetupDatabase(output, 1)
	if err != nil {
		return nil, fmt.Errorf("opening follower database: %w", err)
	}
	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}
	return NewSQLStore(db)
}
