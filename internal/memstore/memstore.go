package memstore

import "github.com/codcod/visor/internal/core"

var _ core.MemoryStore = (*Store)(nil)
