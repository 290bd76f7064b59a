package postgres

import (
	"database/sql"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/pitchsider/match-context/internal/domain/matchcontext"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

func encodeCausalPayload(payload matchcontext.CausalPayload) ([]byte, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode causal payload: %w", err)
	}
	return data, nil
}
