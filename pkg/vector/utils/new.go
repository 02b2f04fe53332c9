// Package vectorutils is the vector store utility package
package vectorutils

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/MikeNorman/poempig/pkg/vector"
	"github.com/MikeNorman/poempig/pkg/vector/inmemory"
	"github.com/MikeNorman/poempig/pkg/vector/postgres"
	"github.com/MikeNorman/poempig/pkg/vector/sqlitevec"
)

type NewStoreOpts struct {
	ProviderType string

	// Target is the db file path for sqlitevec or the connection string
	// for postgres. Ignored by inmemory.
	Target string

	Dimensions uint
}

func NewStore(ctx context.Context, o *NewStoreOpts, logger *zap.Logger) (vector.Store, error) {
	switch o.ProviderType {
	case "sqlitevec":
		return sqlitevec.NewStore(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, logger)
	case "postgres":
		return postgres.NewStore(ctx, postgres.Config{
			ConnString: o.Target,
			Dimensions: o.Dimensions,
		}, logger)
	case "inmemory":
		return inmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
