package sheets

import (
	"context"

	"waist/internal/core"
)

// Writer mirrors the full transaction list to an external sheet.
type Writer interface {
	ReplaceAll(ctx context.Context, txs []core.Transaction) error
}
