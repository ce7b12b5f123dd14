package voting

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	_ "github.com/ielcomnunsahui/cohssa-electoral-system-sub002/testing"
)

func TestViolatesConstraintMatchesDriverError(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_votes_voter_position"}

	require.True(t, violatesConstraint(dup, "uq_votes_voter_position"))
	require.True(t, violatesConstraint(fmt.Errorf("insert vote: %w", dup), "uq_votes_voter_position"))
}

func TestViolatesConstraintIgnoresOtherErrors(t *testing.T) {
	other := &pgconn.PgError{Code: "23503", ConstraintName: "fk_votes_candidate"}

	require.False(t, violatesConstraint(other, "uq_votes_voter_position"))
	require.False(t, violatesConstraint(fmt.Errorf("network down"), "uq_votes_voter_position"))
	require.False(t, violatesConstraint(nil, "uq_votes_voter_position"))
}
